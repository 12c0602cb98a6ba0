package httptransport

import (
	"distrack/internal/distribution/service"
	"distrack/internal/document"
	"distrack/internal/ledger"
	id "distrack/pkg/domain"
	dErrors "distrack/pkg/domain-errors"
)

type documentRefRequest struct {
	Kind string `json:"kind" validate:"required,oneof=invoice additional_document"`
	ID   string `json:"id" validate:"required,uuid"`
}

type createDistributionRequest struct {
	TypeID        string               `json:"type_id" validate:"required"`
	OriginID      string               `json:"origin_id" validate:"required"`
	DestinationID string               `json:"destination_id" validate:"required"`
	Documents     []documentRefRequest `json:"documents" validate:"dive"`
}

type attachDocumentsRequest struct {
	Documents []documentRefRequest `json:"documents" validate:"required,min=1,dive"`
}

type detachDocumentRequest struct {
	Document documentRefRequest `json:"document" validate:"required"`
}

type verificationItemRequest struct {
	Kind   string `json:"kind" validate:"required,oneof=invoice additional_document"`
	ID     string `json:"id" validate:"required"`
	Status string `json:"status" validate:"required,oneof=ok missing damaged"`
	Notes  string `json:"notes" validate:"max=1000"`
}

type recordVerificationRequest struct {
	Items []verificationItemRequest `json:"items" validate:"required,min=1,dive"`
}

type verifyRequest struct {
	Items []verificationItemRequest `json:"items" validate:"dive"`
}

type completeRequest struct {
	Force bool `json:"force"`
}

func (r documentRefRequest) toInput() (service.DocumentInput, error) {
	kind, err := document.ParseKind(r.Kind)
	if err != nil {
		return service.DocumentInput{}, err
	}
	docID, err := id.ParseDocumentID(r.ID)
	if err != nil {
		return service.DocumentInput{}, err
	}
	return service.DocumentInput{Kind: kind, ID: docID}, nil
}

func toDocumentInputs(reqs []documentRefRequest) ([]service.DocumentInput, error) {
	docs := make([]service.DocumentInput, 0, len(reqs))
	for _, req := range reqs {
		doc, err := req.toInput()
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func toVerificationInputs(reqs []verificationItemRequest) ([]service.VerificationInput, error) {
	items := make([]service.VerificationInput, 0, len(reqs))
	for _, req := range reqs {
		kind, err := document.ParseKind(req.Kind)
		if err != nil {
			return nil, err
		}
		docID, err := id.ParseDocumentID(req.ID)
		if err != nil {
			return nil, err
		}
		status, err := ledger.ParseStatus(req.Status)
		if err != nil {
			return nil, err
		}
		items = append(items, service.VerificationInput{
			Kind:   kind,
			ID:     docID,
			Status: status,
			Notes:  req.Notes,
		})
	}
	return items, nil
}

func (c createDistributionRequest) toInput(actor id.UserID) (service.CreateInput, error) {
	typeID, err := id.ParseTypeID(c.TypeID)
	if err != nil {
		return service.CreateInput{}, err
	}
	originID, err := id.ParseDepartmentID(c.OriginID)
	if err != nil {
		return service.CreateInput{}, err
	}
	destID, err := id.ParseDepartmentID(c.DestinationID)
	if err != nil {
		return service.CreateInput{}, err
	}
	docs, err := toDocumentInputs(c.Documents)
	if err != nil {
		return service.CreateInput{}, err
	}
	if originID == destID {
		return service.CreateInput{}, dErrors.New(dErrors.CodeValidation,
			"origin and destination departments must differ")
	}
	return service.CreateInput{
		TypeID:        typeID,
		OriginID:      originID,
		DestinationID: destID,
		Documents:     docs,
		Actor:         actor,
	}, nil
}
