package inventory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/inventory-ds/inventory-ds/internal/rbac"
	"github.com/inventory-ds/inventory-ds/internal/shared"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetProduct(ctx context.Context, id int64) (Product, error)
	ListProducts(ctx context.Context, filter ProductFilter) ([]Product, int, error)
	LowStock(ctx context.Context, threshold int) ([]Product, error)
	ListUsers(ctx context.Context) ([]User, error)
	AppendAudit(ctx context.Context, log shared.AuditLog) error
}

// errNoRows aborts a transaction whose target row is missing. It never escapes
// the service.
var errNoRows = errors.New("inventory: no rows affected")

// Service performs product and user mutations together with their audit entries.
type Service struct {
	repo       RepositoryPort
	clock      Clock
	logger     *slog.Logger
	validate   *validator.Validate
	threshold  int
	bcryptCost int
}

// ServiceConfig groups optional settings.
type ServiceConfig struct {
	LowStockThreshold int
	BcryptCost        int
	Clock             Clock
}

// NewService builds Service.
func NewService(repo RepositoryPort, logger *slog.Logger, cfg ServiceConfig) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = systemClock{}
	}
	threshold := cfg.LowStockThreshold
	if threshold <= 0 {
		threshold = DefaultLowStockThreshold
	}
	cost := cfg.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &Service{
		repo:       repo,
		clock:      clock,
		logger:     logger,
		validate:   validator.New(validator.WithRequiredStructEnabled()),
		threshold:  threshold,
		bcryptCost: cost,
	}
}

// AddProduct creates a product, creating its category on first use.
func (s *Service) AddProduct(ctx context.Context, actor rbac.Principal, draft ProductDraft) (Product, error) {
	if err := rbac.Require(actor, rbac.CapAdd); err != nil {
		return Product{}, err
	}
	draft = draft.normalized()
	if err := s.checkDraft(draft); err != nil {
		return Product{}, err
	}
	now := s.clock.Now()
	var product Product
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		categoryID, err := tx.EnsureCategory(ctx, draft.Category)
		if err != nil {
			return err
		}
		id, err := tx.InsertProduct(ctx, categoryID, draft, now)
		if err != nil {
			return err
		}
		product = draft.product(id, now)
		return tx.AppendAudit(ctx, shared.AuditLog{
			UserID:  shared.ActorID(actor.ID),
			Action:  shared.ActionProductAdded,
			Details: fmt.Sprintf("Added product '%s' (id %d) in category '%s', stock %d, price %.2f", product.Name, id, product.Category, product.Stock, product.Price),
			At:      now,
		})
	})
	if err != nil {
		return Product{}, fmt.Errorf("inventory: add product: %w", err)
	}
	return product, nil
}

// UpdateProduct replaces the fields of product id. A missing product yields false.
func (s *Service) UpdateProduct(ctx context.Context, actor rbac.Principal, id int64, draft ProductDraft) (bool, error) {
	if err := rbac.Require(actor, rbac.CapEdit); err != nil {
		return false, err
	}
	draft = draft.normalized()
	if err := s.checkDraft(draft); err != nil {
		return false, err
	}
	now := s.clock.Now()
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		categoryID, err := tx.EnsureCategory(ctx, draft.Category)
		if err != nil {
			return err
		}
		ok, err := tx.UpdateProduct(ctx, id, categoryID, draft, now)
		if err != nil {
			return err
		}
		if !ok {
			return errNoRows
		}
		return tx.AppendAudit(ctx, shared.AuditLog{
			UserID:  shared.ActorID(actor.ID),
			Action:  shared.ActionProductUpdated,
			Details: fmt.Sprintf("Updated product '%s' (id %d): category '%s', stock %d, price %.2f", draft.Name, id, draft.Category, draft.Stock, draft.Price),
			At:      now,
		})
	})
	return settle("update product", err)
}

// DeleteProduct removes product id. Deleting a missing product yields false.
func (s *Service) DeleteProduct(ctx context.Context, actor rbac.Principal, id int64) (bool, error) {
	if err := rbac.Require(actor, rbac.CapDelete); err != nil {
		return false, err
	}
	now := s.clock.Now()
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		name, err := tx.ProductName(ctx, id)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return errNoRows
			}
			return err
		}
		ok, err := tx.DeleteProduct(ctx, id)
		if err != nil {
			return err
		}
		if !ok {
			return errNoRows
		}
		return tx.AppendAudit(ctx, shared.AuditLog{
			UserID:  shared.ActorID(actor.ID),
			Action:  shared.ActionProductDeleted,
			Details: fmt.Sprintf("Deleted product '%s' (id %d)", name, id),
			At:      now,
		})
	})
	return settle("delete product", err)
}

// AddUser registers a user with the default capabilities of its role. At most one
// of several concurrent registrations of the same username succeeds.
func (s *Service) AddUser(ctx context.Context, actor rbac.Principal, input NewUser) (User, error) {
	if err := rbac.Require(actor, rbac.CapAddUser); err != nil {
		return User{}, err
	}
	input.Username = strings.TrimSpace(input.Username)
	if err := s.check(input); err != nil {
		return User{}, err
	}
	role, ok := rbac.ParseRole(input.Role)
	if !ok {
		return User{}, shared.Validationf("unknown role %q", input.Role)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.bcryptCost)
	if err != nil {
		return User{}, shared.Validationf("password: %v", err)
	}
	now := s.clock.Now()
	user := User{
		Username:     input.Username,
		Role:         role,
		Capabilities: rbac.DefaultCapabilities(role),
		CreatedAt:    now,
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		exists, err := tx.UsernameExists(ctx, user.Username)
		if err != nil {
			return err
		}
		if exists {
			return shared.ErrDuplicateUsername
		}
		id, err := tx.InsertUser(ctx, user, string(hash))
		if err != nil {
			return err
		}
		user.ID = id
		return tx.AppendAudit(ctx, shared.AuditLog{
			UserID:  shared.ActorID(actor.ID),
			Action:  shared.ActionUserAdded,
			Details: fmt.Sprintf("Added user '%s' (id %d) with role %s", user.Username, id, role),
			At:      now,
		})
	})
	if err != nil {
		return User{}, fmt.Errorf("inventory: add user %q: %w", user.Username, err)
	}
	return user, nil
}

// DeleteUser removes user id. The "User Deleted" entry is appended before the
// delete inside the same transaction, so a delete that affects no row leaves no
// entry behind. A missing user yields false.
func (s *Service) DeleteUser(ctx context.Context, actor rbac.Principal, id int64) (bool, error) {
	if err := rbac.Require(actor, rbac.CapDeleteUser); err != nil {
		return false, err
	}
	if id == actor.ID {
		return false, shared.Validationf("cannot delete the acting user")
	}
	now := s.clock.Now()
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		username, err := tx.Username(ctx, id)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return errNoRows
			}
			return err
		}
		err = tx.AppendAudit(ctx, shared.AuditLog{
			UserID:  shared.ActorID(actor.ID),
			Action:  shared.ActionUserDeleted,
			Details: fmt.Sprintf("Deleted user '%s' (id %d)", username, id),
			At:      now,
		})
		if err != nil {
			return err
		}
		ok, err := tx.DeleteUser(ctx, id)
		if err != nil {
			return err
		}
		if !ok {
			return errNoRows
		}
		return nil
	})
	return settle("delete user", err)
}

// LogLogin records a login. Failures are logged and swallowed.
func (s *Service) LogLogin(ctx context.Context, p rbac.Principal) {
	s.appendSessionEvent(ctx, p, shared.ActionUserLogin, fmt.Sprintf("User '%s' logged in", p.Username))
}

// LogLogout records a logout with the session length. Failures are logged and swallowed.
func (s *Service) LogLogout(ctx context.Context, p rbac.Principal, session time.Duration) {
	details := fmt.Sprintf("User '%s' logged out after %s", p.Username, session.Round(time.Second))
	s.appendSessionEvent(ctx, p, shared.ActionUserLogout, details)
}

func (s *Service) appendSessionEvent(ctx context.Context, p rbac.Principal, action, details string) {
	err := s.repo.AppendAudit(ctx, shared.AuditLog{
		UserID:  shared.ActorID(p.ID),
		Action:  action,
		Details: details,
		At:      s.clock.Now(),
	})
	if err != nil {
		s.logger.Warn("audit append failed",
			slog.String("action", action),
			slog.Int64("user_id", p.ID),
			slog.Any("error", err))
	}
}

// GetProduct loads a single product.
func (s *Service) GetProduct(ctx context.Context, actor rbac.Principal, id int64) (Product, error) {
	if err := rbac.Require(actor, rbac.CapView); err != nil {
		return Product{}, err
	}
	return s.repo.GetProduct(ctx, id)
}

// ListProducts returns a page of products matching filter.
func (s *Service) ListProducts(ctx context.Context, actor rbac.Principal, filter ProductFilter) (ProductPage, error) {
	if err := rbac.Require(actor, rbac.CapView); err != nil {
		return ProductPage{}, err
	}
	filter.Page, filter.PageSize = shared.NormalizePage(filter.Page, filter.PageSize)
	products, total, err := s.repo.ListProducts(ctx, filter)
	if err != nil {
		return ProductPage{}, err
	}
	if products == nil {
		products = []Product{}
	}
	return ProductPage{Products: products, Pagination: shared.NewPagination(filter.Page, filter.PageSize, total)}, nil
}

// LowStock lists products below threshold. A non-positive threshold uses the
// configured default.
func (s *Service) LowStock(ctx context.Context, actor rbac.Principal, threshold int) ([]Product, error) {
	if err := rbac.Require(actor, rbac.CapLowStock); err != nil {
		return nil, err
	}
	if threshold <= 0 {
		threshold = s.threshold
	}
	return s.repo.LowStock(ctx, threshold)
}

// ListUsers returns every registered user.
func (s *Service) ListUsers(ctx context.Context, actor rbac.Principal) ([]User, error) {
	if err := rbac.Require(actor, rbac.CapView); err != nil {
		return nil, err
	}
	return s.repo.ListUsers(ctx)
}

func (s *Service) check(v any) error {
	if err := s.validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fieldMessage(fe))
			}
			return shared.Validationf("%s", strings.Join(fields, "; "))
		}
		return shared.Validationf("%v", err)
	}
	return nil
}

func (s *Service) checkDraft(draft ProductDraft) error {
	if err := s.check(draft); err != nil {
		return err
	}
	if !draft.wholeCents() {
		return shared.Validationf("price must have at most 2 decimal places, got %v", draft.Price)
	}
	return nil
}

func fieldMessage(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "gte":
		return fmt.Sprintf("%s must be >= %s, got %v", field, fe.Param(), fe.Value())
	case "lte":
		return fmt.Sprintf("%s must be <= %s, got %v", field, fe.Param(), fe.Value())
	case "max":
		return fmt.Sprintf("%s exceeds %s characters", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s", field, fe.Tag())
	}
}

func settle(op string, err error) (bool, error) {
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, errNoRows):
		return false, nil
	default:
		return false, fmt.Errorf("inventory: %s: %w", op, err)
	}
}
