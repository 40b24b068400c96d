package web

// json.go shapes records for API responses: nullable columns marshal as
// null, hide values as exact decimal strings.

import (
	"database/sql"

	"github.com/opendomesday/domesday/internal/record"
	"github.com/shopspring/decimal"
)

// RecordJSON is the wire form of a landholder record, fields in canonical
// order.
type RecordJSON struct {
	Name            *string         `json:"name"`
	Gender          *string         `json:"gender"`
	PASEName        string          `json:"pase_name"`
	Description     string          `json:"description"`
	Holder1066      decimal.Decimal `json:"holder_1066"`
	Lord1066        decimal.Decimal `json:"lord_1066"`
	Demesne1086     decimal.Decimal `json:"demesne_1086"`
	Subtenanted1086 decimal.Decimal `json:"subtenanted_1086"`
	Subtenant1086   decimal.Decimal `json:"subtenant_1086"`
	Editor          *string         `json:"editor"`
	EditorialStatus string          `json:"editorial_status"`
}

func recordJSON(lh record.Landholder) RecordJSON {
	return RecordJSON{
		Name:            nullable(lh.Name),
		Gender:          nullable(lh.Gender),
		PASEName:        lh.PASEName,
		Description:     lh.Description,
		Holder1066:      lh.Holder1066,
		Lord1066:        lh.Lord1066,
		Demesne1086:     lh.Demesne1086,
		Subtenanted1086: lh.Subtenanted1086,
		Subtenant1086:   lh.Subtenant1086,
		Editor:          nullable(lh.Editor),
		EditorialStatus: lh.EditorialStatus,
	}
}

func toRecordJSON(records []record.Landholder) []RecordJSON {
	out := make([]RecordJSON, len(records))
	for i, lh := range records {
		out[i] = recordJSON(lh)
	}
	return out
}

func nullable(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	return &s.String
}
