package provisioner

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/scimcow/scimcow/pkg/audit"
	"github.com/scimcow/scimcow/pkg/mailcow"
	"github.com/scimcow/scimcow/pkg/observability"
	"github.com/scimcow/scimcow/pkg/scim"
)

var (
	// ErrUserExists is returned when creating a user whose mailbox exists
	ErrUserExists = errors.New("user already exists")

	// ErrUserNotFound is returned when the id resolves to no mailbox
	ErrUserNotFound = errors.New("user not found")

	// ErrDeleteNotAllowed is returned when deletion is disabled by config
	ErrDeleteNotAllowed = errors.New("user deletion is disabled")
)

// MailboxAPI is the slice of the admin API client the provisioner uses.
// *mailcow.Client implements it; tests substitute a fake.
type MailboxAPI interface {
	GetMailbox(ctx context.Context, address string) (*mailcow.Mailbox, error)
	ListMailboxes(ctx context.Context) ([]mailcow.Mailbox, error)
	CreateMailbox(ctx context.Context, req mailcow.CreateMailboxRequest) (string, error)
	UpdateMailbox(ctx context.Context, address string, attrs mailcow.EditAttrs) error
	RenameMailbox(ctx context.Context, oldAddress, newLocalPart, newDomain string) (string, error)
	DeleteMailbox(ctx context.Context, address string) error
}

// Options are the provisioning policy knobs.
type Options struct {
	// AllowDelete gates DELETE /Users entirely
	AllowDelete bool

	// DeleteMailbox selects remote deletion over deactivation
	DeleteMailbox bool

	// UpsertOnUpdate lets PUT on an unknown id create the mailbox
	UpsertOnUpdate bool
}

// Provisioner maps SCIM operations onto the admin API.
type Provisioner struct {
	api     MailboxAPI
	opts    Options
	metrics *observability.Metrics
	audit   audit.Logger
	logger  *observability.Logger
}

// New creates a Provisioner. The audit logger may be audit.NopLogger when
// auditing is not configured.
func New(api MailboxAPI, opts Options, metrics *observability.Metrics, auditLogger audit.Logger, logger *observability.Logger) *Provisioner {
	if auditLogger == nil {
		auditLogger = audit.NopLogger{}
	}
	return &Provisioner{
		api:     api,
		opts:    opts,
		metrics: metrics,
		audit:   auditLogger,
		logger:  logger,
	}
}

// Get resolves a SCIM user by id, which is its mailbox address.
func (p *Provisioner) Get(ctx context.Context, id string) (scim.User, error) {
	mbox, err := p.api.GetMailbox(ctx, id)
	if err != nil {
		if errors.Is(err, mailcow.ErrNotFound) {
			return scim.User{}, fmt.Errorf("user %q: %w", id, ErrUserNotFound)
		}
		return scim.User{}, fmt.Errorf("failed to read mailbox %q: %w", id, err)
	}
	return userFromMailbox(mbox), nil
}

// List returns all mailboxes as SCIM users.
func (p *Provisioner) List(ctx context.Context) ([]scim.User, error) {
	mboxes, err := p.api.ListMailboxes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list mailboxes: %w", err)
	}

	users := make([]scim.User, 0, len(mboxes))
	for i := range mboxes {
		users = append(users, userFromMailbox(&mboxes[i]))
	}
	return users, nil
}

// Create provisions a mailbox for the user's primary email. The caller has
// already validated the payload shape.
func (p *Provisioner) Create(ctx context.Context, user *scim.User) (scim.User, error) {
	address := user.PrimaryEmail()
	local, domain, err := splitAddress(address)
	if err != nil {
		return scim.User{}, err
	}

	// Existence check first so duplicates map to 409, not an opaque
	// admin-API failure.
	_, err = p.api.GetMailbox(ctx, address)
	if err == nil {
		return scim.User{}, fmt.Errorf("mailbox %q: %w", address, ErrUserExists)
	}
	if !errors.Is(err, mailcow.ErrNotFound) {
		return scim.User{}, fmt.Errorf("failed to check mailbox %q: %w", address, err)
	}

	created, err := p.api.CreateMailbox(ctx, mailcow.CreateMailboxRequest{
		LocalPart: local,
		Domain:    domain,
		Name:      user.EffectiveDisplayName(),
		Active:    user.IsActive(),
	})
	if err != nil {
		p.recordFailure(ctx, audit.ActionCreate, address, err)
		return scim.User{}, fmt.Errorf("failed to create mailbox %q: %w", address, err)
	}

	p.metrics.UsersCreated.Inc()
	p.recordSuccess(ctx, audit.ActionCreate, created, "mailbox created")
	p.logger.WithFields(map[string]interface{}{
		"address": created,
		"active":  user.IsActive(),
	}).Info("Created mailbox")

	return echoUser(user, created), nil
}

// Replace performs a full update of the user identified by id. The returned
// bool reports whether an implicit create happened (upsert path).
func (p *Provisioner) Replace(ctx context.Context, id string, user *scim.User) (scim.User, bool, error) {
	_, err := p.api.GetMailbox(ctx, id)
	if err != nil {
		if !errors.Is(err, mailcow.ErrNotFound) {
			return scim.User{}, false, fmt.Errorf("failed to read mailbox %q: %w", id, err)
		}
		if !p.opts.UpsertOnUpdate {
			return scim.User{}, false, fmt.Errorf("user %q: %w", id, ErrUserNotFound)
		}

		p.logger.WithField("address", id).Info("Update of unknown user, creating mailbox")
		created, err := p.Create(ctx, user)
		if err != nil {
			return scim.User{}, false, err
		}
		return created, true, nil
	}

	active := user.IsActive()
	name := user.EffectiveDisplayName()
	if err := p.api.UpdateMailbox(ctx, id, mailcow.EditAttrs{Active: &active, Name: &name}); err != nil {
		p.recordFailure(ctx, audit.ActionUpdate, id, err)
		return scim.User{}, false, fmt.Errorf("failed to update mailbox %q: %w", id, err)
	}

	// A changed primary email moves the mailbox to a new address.
	resultID := id
	action := audit.ActionUpdate
	if address := user.PrimaryEmail(); address != "" && !strings.EqualFold(address, id) {
		local, domain, err := splitAddress(address)
		if err != nil {
			return scim.User{}, false, err
		}

		renamed, err := p.api.RenameMailbox(ctx, id, local, domain)
		if err != nil {
			p.recordFailure(ctx, audit.ActionRename, id, err)
			return scim.User{}, false, fmt.Errorf("failed to rename mailbox %q: %w", id, err)
		}
		resultID = renamed
		action = audit.ActionRename
		p.logger.WithFields(map[string]interface{}{
			"from": id,
			"to":   renamed,
		}).Info("Renamed mailbox")
	}

	p.metrics.UsersUpdated.Inc()
	p.recordSuccess(ctx, action, resultID, "mailbox replaced")

	return echoUser(user, resultID), false, nil
}

// Delete removes or deactivates the mailbox behind id. Deleting an absent
// user succeeds without side effects so retried deprovisioning converges.
func (p *Provisioner) Delete(ctx context.Context, id string) error {
	if !p.opts.AllowDelete {
		event := p.newEvent(ctx, audit.ActionDelete, audit.OutcomeDenied, id)
		event.Detail = "deletion disabled by configuration"
		p.record(ctx, event)
		return fmt.Errorf("delete %q: %w", id, ErrDeleteNotAllowed)
	}

	_, err := p.api.GetMailbox(ctx, id)
	if err != nil {
		if errors.Is(err, mailcow.ErrNotFound) {
			p.logger.WithField("address", id).Debug("Delete of absent mailbox, nothing to do")
			return nil
		}
		return fmt.Errorf("failed to read mailbox %q: %w", id, err)
	}

	if p.opts.DeleteMailbox {
		if err := p.api.DeleteMailbox(ctx, id); err != nil {
			p.recordFailure(ctx, audit.ActionDelete, id, err)
			return fmt.Errorf("failed to delete mailbox %q: %w", id, err)
		}
		p.metrics.UsersDeleted.Inc()
		p.recordSuccess(ctx, audit.ActionDelete, id, "mailbox deleted")
		p.logger.WithField("address", id).Info("Deleted mailbox")
		return nil
	}

	inactive := false
	if err := p.api.UpdateMailbox(ctx, id, mailcow.EditAttrs{Active: &inactive}); err != nil {
		p.recordFailure(ctx, audit.ActionDeactivate, id, err)
		return fmt.Errorf("failed to deactivate mailbox %q: %w", id, err)
	}
	p.metrics.UsersDeleted.Inc()
	p.recordSuccess(ctx, audit.ActionDeactivate, id, "mailbox deactivated")
	p.logger.WithField("address", id).Info("Deactivated mailbox")
	return nil
}

// newEvent builds an audit event carrying the request's actor and id.
func (p *Provisioner) newEvent(ctx context.Context, action audit.Action, outcome audit.Outcome, resource string) *audit.Event {
	event := audit.NewEvent(action, outcome, resource)
	event.Actor = audit.ActorFromContext(ctx)
	event.RequestID = observability.GetRequestID(ctx)
	return event
}

func (p *Provisioner) recordSuccess(ctx context.Context, action audit.Action, resource, detail string) {
	event := p.newEvent(ctx, action, audit.OutcomeSuccess, resource)
	event.Detail = detail
	p.record(ctx, event)
}

func (p *Provisioner) recordFailure(ctx context.Context, action audit.Action, resource string, err error) {
	event := p.newEvent(ctx, action, audit.OutcomeFailure, resource)
	event.ErrorMessage = err.Error()
	p.record(ctx, event)
}

// record writes the event, logging instead of failing the request when the
// audit sink is down.
func (p *Provisioner) record(ctx context.Context, event *audit.Event) {
	if err := p.audit.Log(ctx, event); err != nil {
		p.logger.WithError(err).Warn("Failed to write audit event")
	}
}
