package export

import (
	"encoding/json"
	"io"

	"github.com/pkg/errors"
)

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(v), "encoding json")
}
