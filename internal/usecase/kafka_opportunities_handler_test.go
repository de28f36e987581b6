package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const kafkaBatch = `{"opportunities":[
	{"id":"a","name":"Deal a","amount":1000,"stage":"Proposal","close_date":"2024-07-01T00:00:00Z","created_date":"2024-05-01T00:00:00Z","probability":50},
	{"id":"b","name":"Deal b","amount":2000,"stage":"Negotiation","close_date":"2024-07-01T00:00:00Z","created_date":"2024-05-01T00:00:00Z","probability":20}
]}`

func TestKafkaHandlerRunsBatch(t *testing.T) {
	p, f := newPipeline(scriptedScorer{probs: map[string]float64{"a": 0.9, "b": 0.2}})
	h := NewKafkaOpportunitiesHandler("opportunities-to-score", p, nil, nil)
	assert.Equal(t, "opportunities-to-score", h.Topic())

	require.NoError(t, h.Handle(context.Background(), []byte(kafkaBatch)))
	assert.Len(t, f.crm.updates, 2)
	require.Len(t, f.crm.tasks, 1)
	assert.Equal(t, "b", f.crm.tasks[0].WhatID)
	require.Len(t, f.pub.runs, 1)
	assert.Equal(t, 2, f.pub.runs[0].Processed)
}

func TestKafkaHandlerRejectsMalformed(t *testing.T) {
	p, f := newPipeline(scriptedScorer{})
	h := NewKafkaOpportunitiesHandler("t", p, nil, nil)

	assert.ErrorContains(t, h.Handle(context.Background(), []byte(`{"opportunities":`)), "decode")
	assert.ErrorContains(t, h.Handle(context.Background(), []byte(`{"opportunities":[{"id":"x"}]}`)), "validate")
	assert.NoError(t, h.Handle(context.Background(), []byte(`{"opportunities":[]}`)))
	assert.Empty(t, f.crm.updates)
}
