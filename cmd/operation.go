package cmd

import (
	"context"
	"fmt"

	"github.com/va6996/toolshed/orm"
)

// Operation is the kind of change an edit command makes to the inventory
type Operation int

const (
	OperationCreate Operation = iota + 1
	OperationUpdate
	OperationDelete
)

func (o Operation) String() string {
	switch o {
	case OperationCreate:
		return "create"
	case OperationUpdate:
		return "update"
	case OperationDelete:
		return "delete"
	}
	return fmt.Sprintf("operation(%d)", int(o))
}

// toolStore is the part of orm.ToolRepository the commands use
type toolStore interface {
	Create(ctx context.Context, tool *orm.Tool) (*orm.Tool, error)
	Update(ctx context.Context, tool *orm.Tool) (bool, error)
	Delete(ctx context.Context, tool *orm.Tool) (bool, error)
	Search(ctx context.Context, pattern string) ([]orm.Tool, error)
	GetByID(ctx context.Context, id uint) (*orm.Tool, error)
}

var _ toolStore = (*orm.ToolRepository)(nil)

// apply runs op against the store and returns the confirmation for the operator.
// A row that disappeared between loading and writing is reported as an error.
func apply(ctx context.Context, store toolStore, op Operation, tool *orm.Tool) (string, error) {
	switch op {
	case OperationCreate:
		created, err := store.Create(ctx, tool)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Tool %d created: %s", created.ID, created.Name), nil

	case OperationUpdate:
		ok, err := store.Update(ctx, tool)
		if err != nil {
			return "", err
		}
		if !ok {
			return "", fmt.Errorf("tool %d no longer exists", tool.ID)
		}
		return fmt.Sprintf("Tool %d updated", tool.ID), nil

	case OperationDelete:
		ok, err := store.Delete(ctx, tool)
		if err != nil {
			return "", err
		}
		if !ok {
			return "", fmt.Errorf("tool %d no longer exists", tool.ID)
		}
		return fmt.Sprintf("Tool %d deleted", tool.ID), nil
	}
	return "", fmt.Errorf("unsupported %s", op)
}
