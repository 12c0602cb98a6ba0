package service

import (
	"context"

	id "distrack/pkg/domain"
)

//go:generate mockgen -source=ports.go -destination=mocks/ports_mocks.go -package=mocks Directory,Authorizer,TxRunner

// Directory is the department collaborator. The core only needs existence
// checks; department CRUD lives elsewhere.
type Directory interface {
	Exists(ctx context.Context, deptID id.DepartmentID) (bool, error)
}

// Authorizer answers who an actor is allowed to act for. Sender-side calls
// require membership of the origin department, receiver-side calls the
// destination, and forced completion an elevated role.
type Authorizer interface {
	DepartmentOf(ctx context.Context, actor id.UserID) (id.DepartmentID, error)
	IsElevated(ctx context.Context, actor id.UserID) (bool, error)
}

// TxRunner wraps one workflow operation in a storage transaction. Everything
// the closure writes commits or rolls back together; implementations must
// also serialize concurrent operations on the same distribution (row lock or
// equivalent) so racing transitions cannot both succeed.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}
