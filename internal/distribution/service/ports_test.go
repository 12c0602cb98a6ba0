package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"distrack/internal/advice"
	"distrack/internal/distribution"
	"distrack/internal/distribution/numbering"
	"distrack/internal/distribution/service/mocks"
	"distrack/internal/document"
	"distrack/internal/history"
	"distrack/internal/ledger"
	id "distrack/pkg/domain"
	dErrors "distrack/pkg/domain-errors"
)

// newMockedService wires the service against gomock collaborators so error
// propagation from the ports can be pinned down precisely.
func newMockedService(t *testing.T) (*Service, *mocks.MockDirectory, *mocks.MockAuthorizer) {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	directory := mocks.NewMockDirectory(ctrl)
	authz := mocks.NewMockAuthorizer(ctrl)

	svc := New(Deps{
		Store:     distribution.NewInMemoryStore(),
		Types:     distribution.NewInMemoryTypeStore(),
		Ledger:    ledger.NewInMemoryStore(),
		History:   history.NewInMemoryStore(),
		Advices:   advice.NewInMemoryStore(),
		Resolver:  document.NewResolver(document.NewInMemoryStore()),
		Directory: directory,
		Authz:     authz,
		Numbers:   numbering.NewInMemoryAllocator(),
		Txn:       NewInMemoryTx(),
	}, WithClock(func() time.Time {
		return time.Date(2026, 8, 14, 9, 30, 0, 0, time.UTC)
	}))
	return svc, directory, authz
}

func TestCreate_DirectoryFailureIsInternal(t *testing.T) {
	svc, directory, _ := newMockedService(t)
	origin := id.DepartmentID(uuid.New())

	directory.EXPECT().Exists(gomock.Any(), origin).Return(false, errors.New("directory down"))

	_, err := svc.Create(context.Background(), CreateInput{
		TypeID:        id.TypeID(uuid.New()),
		OriginID:      origin,
		DestinationID: id.DepartmentID(uuid.New()),
		Actor:         id.UserID(uuid.New()),
	})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInternal))
}

func TestCreate_StopsAtFirstMissingDepartment(t *testing.T) {
	svc, directory, _ := newMockedService(t)
	origin := id.DepartmentID(uuid.New())

	directory.EXPECT().Exists(gomock.Any(), origin).Return(false, nil)

	_, err := svc.Create(context.Background(), CreateInput{
		TypeID:        id.TypeID(uuid.New()),
		OriginID:      origin,
		DestinationID: id.DepartmentID(uuid.New()),
		Actor:         id.UserID(uuid.New()),
	})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}
