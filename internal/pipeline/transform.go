package pipeline

import (
	"fmt"
	"strings"

	"placement/internal"
)

// Transformer turns one uploaded file into the table that gets stored.
type Transformer interface {
	Transform(file internal.UploadFile, sheet string) (*Table, error)
}

// ResultTransformer maps an exam result sheet onto CanonicalSchema. Result
// sheets are always read from their first sheet.
type ResultTransformer struct {
	Lookup *LookupTable
}

func (r ResultTransformer) Transform(file internal.UploadFile, _ string) (*Table, error) {
	raw, err := DecodeRawTable(file)
	if err != nil {
		return nil, err
	}
	return MapToCanonical(NormalizeHeaders(raw), r.Lookup), nil
}

// Passthrough stores a sheet as decoded.
type Passthrough struct{}

func (Passthrough) Transform(file internal.UploadFile, sheet string) (*Table, error) {
	return DecodeTable(file, sheet)
}

// TransformerFor selects the transformer of a slot. Anything that is not an
// exam result falls through to Passthrough.
func TransformerFor(slot internal.Slot) Transformer {
	switch slot {
	case internal.SlotDAC:
		return ResultTransformer{Lookup: DACLookup()}
	case internal.SlotDBDA:
		return ResultTransformer{Lookup: DBDALookup()}
	default:
		return Passthrough{}
	}
}

// ParseTransformKind resolves the CLI spelling of a transformer:
// DAC, DBDA or passthrough.
func ParseTransformKind(kind string) (Transformer, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "dac":
		return TransformerFor(internal.SlotDAC), nil
	case "dbda":
		return TransformerFor(internal.SlotDBDA), nil
	case "passthrough", "":
		return Passthrough{}, nil
	default:
		return nil, fmt.Errorf("unknown transform type %q (want DAC, DBDA or passthrough)", kind)
	}
}
