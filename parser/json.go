package parser

import (
	"bytes"
	"encoding/json"
	"io/ioutil"

	"github.com/crunchsb/levy/model"
	"github.com/pkg/errors"
)

// jsonParser reads either one series object or an array of them.
type jsonParser struct {
	opts ParserOptions
}

func (p *jsonParser) Initialize(opts ParserOptions) error {
	if opts.Path == "" {
		return errors.New("no path given")
	}
	p.opts = opts
	return nil
}

func (p *jsonParser) Parse() ([]model.Series, error) {
	data, err := ioutil.ReadFile(p.opts.Path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading '%s'", p.opts.Path)
	}

	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		out := []model.Series{}
		if err = json.Unmarshal(data, &out); err != nil {
			return nil, errors.Wrap(err, "decoding series array")
		}
		return out, nil
	}

	s := model.Series{}
	if err = json.Unmarshal(data, &s); err != nil {
		return nil, errors.Wrap(err, "decoding series")
	}
	if s.ID == "" {
		s.ID = p.opts.SeriesID
	}
	return []model.Series{s}, nil
}
