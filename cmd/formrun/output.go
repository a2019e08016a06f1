package main

import (
	"io"

	"github.com/itchyny/gojq"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"

	"github.com/wudi/formscript/form"
)

// messageWriter prints host messages as JSON lines, optionally through a
// jq filter.
type messageWriter struct {
	enc    *jsoniter.Encoder
	filter *gojq.Query
}

func newMessageWriter(out io.Writer, filter string) (*messageWriter, error) {
	w := &messageWriter{enc: jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(out)}
	if filter != "" {
		q, err := gojq.Parse(filter)
		if err != nil {
			return nil, errors.Wrap(err, "filter")
		}
		w.filter = q
	}
	return w, nil
}

func (w *messageWriter) write(msg form.Message) error {
	if w.filter == nil {
		return w.enc.Encode(msg)
	}
	// gojq only accepts plain JSON values.
	b, err := jsoniter.Marshal(msg)
	if err != nil {
		return err
	}
	var v map[string]any
	if err := jsoniter.Unmarshal(b, &v); err != nil {
		return err
	}
	iter := w.filter.Run(v)
	for {
		out, ok := iter.Next()
		if !ok {
			return nil
		}
		if err, isErr := out.(error); isErr {
			return errors.Wrap(err, "filter")
		}
		if err := w.enc.Encode(out); err != nil {
			return err
		}
	}
}
