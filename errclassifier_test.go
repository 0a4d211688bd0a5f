// SPDX-License-Identifier: GPL-3.0-or-later

package abxclient

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/bassosimone/errclass"
	"github.com/stretchr/testify/assert"
)

func TestDefaultErrClassifier(t *testing.T) {
	assert.Equal(t, "", DefaultErrClassifier.Classify(nil))
	assert.Equal(t, errclass.ETIMEDOUT, DefaultErrClassifier.Classify(context.DeadlineExceeded))
	assert.Equal(t, errclass.EGENERIC, DefaultErrClassifier.Classify(errors.New("unknown error")))
}

// Custom classifiers show up in the errClass of *Done events.
func TestErrClassifierFunc(t *testing.T) {
	logger, records := newCapturingLogger()
	cfg := NewConfig()
	cfg.ErrClassifier = ErrClassifierFunc(func(err error) string {
		if err == nil {
			return ""
		}
		return "ESHORT"
	})
	conn := newScriptedConn()
	conn.WriteFunc = func([]byte) (int, error) { return 0, nil }
	sess := newTestSession(t, cfg, logger, conn)

	_, err := sess.StreamAll(context.Background())
	assert.Error(t, err)

	var got string
	for _, rec := range *records {
		if rec.Message != "streamAllDone" {
			continue
		}
		rec.Attrs(func(a slog.Attr) bool {
			if a.Key == "errClass" {
				got = a.Value.String()
			}
			return true
		})
	}
	assert.Equal(t, "ESHORT", got)
}
