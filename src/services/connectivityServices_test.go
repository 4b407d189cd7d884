package services_test

import (
	"context"
	"testing"

	"github.com/biblioteca/loans-service/src/services"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func Test_ConnectivityService_ReportsEachUpstreamInOrder(t *testing.T) {
	svc := services.NewConnectivityService().
		Register("books", pingFunc(func(context.Context) error { return nil })).
		Register("users", pingFunc(func(context.Context) error { return errors.New("connection refused") }))

	statuses := svc.Check(context.Background())

	assert.Len(t, statuses, 2)
	assert.Equal(t, "books", statuses[0].Name)
	assert.True(t, statuses[0].Up)
	assert.Empty(t, statuses[0].Error)
	assert.Equal(t, "users", statuses[1].Name)
	assert.False(t, statuses[1].Up)
	assert.Equal(t, "connection refused", statuses[1].Error)
	assert.False(t, services.AllUp(statuses))
}

func Test_ConnectivityService_NoUpstreams_IsUp(t *testing.T) {
	statuses := services.NewConnectivityService().Check(context.Background())

	assert.Empty(t, statuses)
	assert.True(t, services.AllUp(statuses))
}
