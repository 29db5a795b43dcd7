// internal/writers/formats.go
package writers

import (
	"bufio"
	"encoding/json"
	"fmt"

	"layoutrefine/internal/delta"
	"layoutrefine/pkg/api"
)

// TSVHeader is the header row of the tsv format.
const TSVHeader = "source_file\tid\treference_id\tquery_id\tref_start\tref_end\tquery_start\tquery_end\tstrand\terrors\tsimilarity_errors\tnon_alphas"

func init() {
	Register(FormatDelta, openDelta)
	Register(FormatJSONL, openJSONL)
	Register(FormatJSON, openJSON)
	Register(FormatTSV, openTSV)
}

// openDelta writes the input format back out, so refined files can be fed
// to the refiner again.
func openDelta(bw *bufio.Writer, _ Options) (Encoder, error) {
	w := delta.NewWriter(bw)
	return Encoder{
		Write:  func(it Item) error { return w.Write(it.Alignment) },
		Finish: w.Flush,
	}, nil
}

func openJSONL(bw *bufio.Writer, _ Options) (Encoder, error) {
	enc := json.NewEncoder(bw)
	return Encoder{
		Write: func(it Item) error { return enc.Encode(ToAPI(it)) },
	}, nil
}

// openJSON buffers everything and writes one indented array at the end.
func openJSON(bw *bufio.Writer, _ Options) (Encoder, error) {
	list := []api.AlignmentV1{}
	return Encoder{
		Write:  func(it Item) error { list = append(list, ToAPI(it)); return nil },
		Finish: func() error {
			enc := json.NewEncoder(bw)
			enc.SetIndent("", "  ")
			return enc.Encode(list)
		},
	}, nil
}

func openTSV(bw *bufio.Writer, o Options) (Encoder, error) {
	if o.Header {
		if _, err := fmt.Fprintln(bw, TSVHeader); err != nil {
			return Encoder{}, err
		}
	}
	return Encoder{
		Write: func(it Item) error {
			v := ToAPI(it)
			_, err := fmt.Fprintf(bw, "%s\t%d\t%s\t%s\t%d\t%d\t%d\t%d\t%s\t%d\t%d\t%d\n",
				v.SourceFile, v.ID, v.ReferenceID, v.QueryID,
				v.RefStart, v.RefEnd, v.QueryStart, v.QueryEnd,
				v.Strand, v.Errors, v.SimilarityErrors, v.NonAlphas,
			)
			return err
		},
	}, nil
}
