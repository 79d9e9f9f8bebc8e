// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/s3hookproxy/proxy/pkg/event"
)

func TestRecordHookResults(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.RecordHookResults("pre_upload_before_check", []event.Result{
		{Name: "hook_encrypt_data", Success: true},
		{Name: "scanner", Success: false, Value: "infected"},
	})

	assert.Equal(t, float64(1), testutil.ToFloat64(m.HookInvocations.WithLabelValues("pre_upload_before_check", "hook_encrypt_data", "success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.HookInvocations.WithLabelValues("pre_upload_before_check", "scanner", "failure")))
}
