package access

import (
	"errors"
	"fmt"

	"github.com/rfpgate/rfpgate/pkg/accessreq"
	"github.com/rfpgate/rfpgate/pkg/auth"
	"github.com/rfpgate/rfpgate/pkg/nda"
	"github.com/rfpgate/rfpgate/pkg/rfp"
)

// ErrNotFound is returned when the target document or RFP does not
// exist. Absence of the target is the only error a malformed identifier
// produces; absence of an NDA or access request never is one.
var ErrNotFound = errors.New("access: target not found")

// RFPSource provides RFP and document lookups. Satisfied by *rfp.Store.
type RFPSource interface {
	GetRFP(id string) (*rfp.RFPRecord, error)
	GetDocument(id string) (*rfp.DocumentRecord, error)
}

// IndividualNDASource provides the per-user NDA lookup. Satisfied by
// *nda.Store.
type IndividualNDASource interface {
	GetByRFPAndUser(rfpID, userID string) (*nda.IndividualNDARecord, error)
}

// CompanyNDASource provides the per-company NDA lookup. Satisfied by
// *nda.CompanyStore.
type CompanyNDASource interface {
	GetByRFPAndCompany(rfpID, companyID string) (*nda.CompanyNDARecord, error)
}

// AccessRequestSource provides the access request lookup. Satisfied by
// *accessreq.Store.
type AccessRequestSource interface {
	GetByRFPAndUser(rfpID, userID string) (*accessreq.AccessRequestRecord, error)
}

// Engine fetches the records a decision depends on and evaluates the
// rule lists. It never writes.
type Engine struct {
	rfps      RFPSource
	ndas      IndividualNDASource
	companies CompanyNDASource
	requests  AccessRequestSource
}

// NewEngine wires the engine over its stores.
func NewEngine(rfps RFPSource, ndas IndividualNDASource, companies CompanyNDASource, requests AccessRequestSource) *Engine {
	return &Engine{rfps: rfps, ndas: ndas, companies: companies, requests: requests}
}

// CanAccessDocument decides whether the actor may read the document's
// content. Returns ErrNotFound when the document or its RFP does not
// exist; store failures propagate as errors, never as denials.
func (e *Engine) CanAccessDocument(actor auth.Actor, documentID string) (Decision, error) {
	doc, err := e.rfps.GetDocument(documentID)
	if err != nil {
		return Decision{}, fmt.Errorf("load document: %w", err)
	}
	if doc == nil {
		return Decision{}, ErrNotFound
	}

	record, err := e.rfps.GetRFP(doc.RFPID)
	if err != nil {
		return Decision{}, fmt.Errorf("load rfp: %w", err)
	}
	if record == nil {
		return Decision{}, ErrNotFound
	}

	individual, company, request, err := e.actorRecords(actor, record.ID)
	if err != nil {
		return Decision{}, err
	}

	return DecideDocument(actor, doc, record, individual, company, request), nil
}

// CanAccessRFP decides whether the actor may see the RFP's metadata.
func (e *Engine) CanAccessRFP(actor auth.Actor, rfpID string) (Decision, error) {
	record, err := e.rfps.GetRFP(rfpID)
	if err != nil {
		return Decision{}, fmt.Errorf("load rfp: %w", err)
	}
	if record == nil {
		return Decision{}, ErrNotFound
	}

	request, err := e.actorRequest(actor, rfpID)
	if err != nil {
		return Decision{}, err
	}

	return DecideRFP(actor, record, request), nil
}

// actorRecords loads the actor's NDA and access request standing for an
// RFP with one full read per record. Anonymous actors hold no records.
func (e *Engine) actorRecords(actor auth.Actor, rfpID string) (*nda.IndividualNDARecord, *nda.CompanyNDARecord, *accessreq.AccessRequestRecord, error) {
	var (
		individual *nda.IndividualNDARecord
		company    *nda.CompanyNDARecord
		err        error
	)
	if !actor.IsAnonymous() {
		individual, err = e.ndas.GetByRFPAndUser(rfpID, actor.UserID)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("load individual nda: %w", err)
		}
	}
	if actor.CompanyID != "" {
		company, err = e.companies.GetByRFPAndCompany(rfpID, actor.CompanyID)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("load company nda: %w", err)
		}
	}
	request, err := e.actorRequest(actor, rfpID)
	if err != nil {
		return nil, nil, nil, err
	}
	return individual, company, request, nil
}

func (e *Engine) actorRequest(actor auth.Actor, rfpID string) (*accessreq.AccessRequestRecord, error) {
	if actor.IsAnonymous() {
		return nil, nil
	}
	request, err := e.requests.GetByRFPAndUser(rfpID, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("load access request: %w", err)
	}
	return request, nil
}
