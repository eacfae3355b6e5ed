package orm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	logcontext "github.com/va6996/toolshed/context"
	"github.com/va6996/toolshed/database"
	"github.com/va6996/toolshed/log"
	"gorm.io/gorm"
)

// Connector lends out one database connection for the duration of fn and
// takes it back afterwards, whatever fn returns.
type Connector interface {
	WithConn(ctx context.Context, op string, fn func(tx *gorm.DB) error) error
}

var _ Connector = (*database.Factory)(nil)

// likeEscape is the LIKE escape character. '!' needs no quoting in any of
// the supported dialects, unlike backslash on MySQL.
const likeEscape = "!"

var likeEscaper = strings.NewReplacer(
	likeEscape, likeEscape+likeEscape,
	"%", likeEscape+"%",
	"_", likeEscape+"_",
)

// ToolRepository issues parameterized statements against the tools table.
// Each call borrows a connection from the Connector and gives it back before
// returning. Tools passed in are never modified.
type ToolRepository struct {
	conn Connector
}

func NewToolRepository(conn Connector) *ToolRepository {
	return &ToolRepository{conn: conn}
}

// Create inserts tool and returns the stored row, re-read by its generated ID.
func (r *ToolRepository) Create(ctx context.Context, tool *Tool) (*Tool, error) {
	const op = "create"
	if tool == nil {
		return nil, &ValidationError{Fields: []string{"tool"}, Reason: "required"}
	}
	if err := tool.Validate(); err != nil {
		return nil, err
	}
	ctx, _ = logcontext.EnsureOperationID(ctx)

	row := tool.Normalized()
	row.ID = 0

	var created Tool
	err := r.conn.WithConn(ctx, op, func(tx *gorm.DB) error {
		if err := tx.Create(&row).Error; err != nil {
			return &PersistenceError{Op: op, Err: err}
		}
		if row.ID == 0 {
			return &PersistenceError{Op: op, Err: ErrNoGeneratedID}
		}

		err := tx.Where("id = ?", row.ID).Take(&created).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &PersistenceError{Op: op, Err: fmt.Errorf("row %d missing after insert: %w", row.ID, ErrToolNotFound)}
		}
		if err != nil {
			return &PersistenceError{Op: op, Err: err}
		}
		return nil
	})
	if err != nil {
		logFailure(ctx, op, err)
		return nil, err
	}

	log.Infof(ctx, "Created tool %d (%s)", created.ID, created.Name)
	return &created, nil
}

// Update overwrites name, type and primary use of the row with tool.ID. It
// reports false, without error, when no row has that ID.
func (r *ToolRepository) Update(ctx context.Context, tool *Tool) (bool, error) {
	const op = "update"
	if err := requirePersisted(tool); err != nil {
		return false, err
	}
	if err := tool.Validate(); err != nil {
		return false, err
	}
	ctx, _ = logcontext.EnsureOperationID(ctx)

	row := tool.Normalized()

	var affected int64
	err := r.conn.WithConn(ctx, op, func(tx *gorm.DB) error {
		res := tx.Model(&Tool{}).Where("id = ?", row.ID).Updates(map[string]interface{}{
			"name":        row.Name,
			"type":        row.Type,
			"primary_use": row.PrimaryUse,
		})
		if res.Error != nil {
			return &PersistenceError{Op: op, Err: res.Error}
		}
		affected = res.RowsAffected
		return nil
	})
	if err != nil {
		logFailure(ctx, op, err)
		return false, err
	}

	if affected == 0 {
		log.Debugf(ctx, "Update matched no tool with id %d", row.ID)
		return false, nil
	}
	log.Infof(ctx, "Updated tool %d", row.ID)
	return true, nil
}

// Delete removes the row with tool.ID. It reports false, without error, when
// no row has that ID.
func (r *ToolRepository) Delete(ctx context.Context, tool *Tool) (bool, error) {
	const op = "delete"
	if err := requirePersisted(tool); err != nil {
		return false, err
	}
	ctx, _ = logcontext.EnsureOperationID(ctx)

	var affected int64
	err := r.conn.WithConn(ctx, op, func(tx *gorm.DB) error {
		res := tx.Where("id = ?", tool.ID).Delete(&Tool{})
		if res.Error != nil {
			return &PersistenceError{Op: op, Err: res.Error}
		}
		affected = res.RowsAffected
		return nil
	})
	if err != nil {
		logFailure(ctx, op, err)
		return false, err
	}

	if affected == 0 {
		log.Debugf(ctx, "Delete matched no tool with id %d", tool.ID)
		return false, nil
	}
	log.Infof(ctx, "Deleted tool %d", tool.ID)
	return true, nil
}

// Search returns every tool whose name contains pattern. Wildcard characters
// in pattern match literally; an empty pattern returns all tools. Case
// sensitivity is whatever the store's collation gives, and no order is imposed.
func (r *ToolRepository) Search(ctx context.Context, pattern string) ([]Tool, error) {
	const op = "search"
	ctx, _ = logcontext.EnsureOperationID(ctx)

	like := "%" + likeEscaper.Replace(nfc(pattern)) + "%"

	tools := []Tool{}
	err := r.conn.WithConn(ctx, op, func(tx *gorm.DB) error {
		err := tx.Where("name LIKE ? ESCAPE '"+likeEscape+"'", like).Find(&tools).Error
		if err != nil {
			return &PersistenceError{Op: op, Err: err}
		}
		return nil
	})
	if err != nil {
		logFailure(ctx, op, err)
		return nil, err
	}
	if tools == nil {
		tools = []Tool{}
	}

	log.Debugf(ctx, "Search %q matched %d tools", pattern, len(tools))
	return tools, nil
}

// GetByID returns the tool with id, or an error wrapping ErrToolNotFound.
func (r *ToolRepository) GetByID(ctx context.Context, id uint) (*Tool, error) {
	const op = "get"
	if id == 0 {
		return nil, fmt.Errorf("%w: id 0", ErrToolNotFound)
	}
	ctx, _ = logcontext.EnsureOperationID(ctx)

	var (
		tool     Tool
		notFound bool
	)
	err := r.conn.WithConn(ctx, op, func(tx *gorm.DB) error {
		err := tx.Where("id = ?", id).Take(&tool).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			notFound = true
			return nil
		}
		if err != nil {
			return &PersistenceError{Op: op, Err: err}
		}
		return nil
	})
	if err != nil {
		logFailure(ctx, op, err)
		return nil, err
	}
	if notFound {
		return nil, fmt.Errorf("%w: id %d", ErrToolNotFound, id)
	}
	return &tool, nil
}

func requirePersisted(tool *Tool) error {
	if tool == nil {
		return &ValidationError{Fields: []string{"tool"}, Reason: "required"}
	}
	if !tool.Persisted() {
		return &ValidationError{Fields: []string{"id"}, Reason: "must refer to a stored tool"}
	}
	return nil
}

func logFailure(ctx context.Context, op string, err error) {
	var connErr *database.ConnectionError
	if errors.As(err, &connErr) {
		log.Errorf(ctx, "Tool %s could not reach the database: %v", op, err)
		return
	}
	log.Errorf(ctx, "Tool %s failed: %v", op, err)
}
