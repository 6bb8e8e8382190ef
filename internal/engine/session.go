package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/revgraph/revgraph/internal/model"
	"github.com/revgraph/revgraph/internal/store"
)

type sessionState int

const (
	sessionOpen sessionState = iota
	sessionCommitted
	sessionRolledBack
)

func (s sessionState) String() string {
	switch s {
	case sessionCommitted:
		return "committed"
	case sessionRolledBack:
		return "rolled back"
	default:
		return "open"
	}
}

// assocKey identifies an association continuity staged in this session
// before it has a persisted row.
type assocKey struct {
	class string
	left  string
	right string
}

// Session is a unit of work: an open revision plus the versions staged
// under it. Staged state is private to the session until Commit; Rollback
// discards it with no durable effect.
//
// Not safe for concurrent use.
type Session struct {
	eng   *Engine
	rev   model.Revision
	state sessionState

	// staged maps continuity id to its pending version. Re-staging a
	// continuity replaces the entry: at most one version per
	// (continuity, revision) pair.
	staged map[string]*store.StagedVersion

	// order preserves first-staged order for deterministic commits.
	order []string

	// assocKeys maps endpoint pairs to association continuity ids
	// allocated in this session.
	assocKeys map[assocKey]string
}

// PendingVersion is the caller-visible handle for a staged version.
type PendingVersion struct {
	ContinuityID string
	Class        string
	State        model.State
	Attrs        model.Attrs
}

// Revision returns the session's revision. Sequence and timestamp are
// zero until Commit succeeds.
func (s *Session) Revision() model.Revision {
	return s.rev
}

// SetMessage sets the revision log message. A no-op on a closed session.
func (s *Session) SetMessage(msg string) {
	if s.state != sessionOpen {
		return
	}
	s.rev.Message = msg
}

func (s *Session) guard(op string) error {
	if s.state != sessionOpen {
		return &SessionError{Op: op, Reason: fmt.Sprintf("session already %s", s.state)}
	}
	return nil
}

// Stage records a new attribute snapshot for a continuity under this
// session's revision. An empty continuityID allocates a new continuity of
// the given class; its first version starts Active, or PendingActive when
// the class is moderated. For an existing continuity the class argument
// is ignored, the head's base sequence is recorded for conflict
// detection, and the staged state follows the head (moderated classes
// route updates through PendingActive).
//
// Staging touches no durable storage.
func (s *Session) Stage(ctx context.Context, continuityID, class string, attrs model.Attrs) (PendingVersion, error) {
	if err := s.guard("stage"); err != nil {
		return PendingVersion{}, err
	}

	// New continuity.
	if continuityID == "" {
		if class == "" {
			return PendingVersion{}, &SessionError{Op: "stage", Reason: "class required for a new continuity"}
		}
		spec := s.eng.classes.Lookup(class)
		if err := spec.Validate(attrs); err != nil {
			return PendingVersion{}, &SessionError{Op: "stage", Reason: err.Error()}
		}
		sv := &store.StagedVersion{
			ContinuityID: s.eng.ids.NewID(),
			Class:        class,
			New:          true,
			State:        model.InitialState(spec.Moderated),
			Attrs:        attrs.Clone(),
		}
		s.put(sv)
		return s.pending(sv), nil
	}

	// Existing (or already staged) continuity.
	sv, err := s.entry(ctx, continuityID, "stage")
	if err != nil {
		return PendingVersion{}, err
	}
	spec := s.eng.classes.Lookup(sv.Class)
	if err := spec.Validate(attrs); err != nil {
		return PendingVersion{}, &SessionError{Op: "stage", Reason: err.Error()}
	}
	sv.Attrs = attrs.Clone()
	if spec.Moderated && !sv.New {
		sv.State = model.StatePendingActive
	}
	return s.pending(sv), nil
}

// Delete stages a delete transition: Active becomes Deleted, or
// PendingDeleted when the class is moderated. Deleting a continuity that
// is already deleted is a StateError.
func (s *Session) Delete(ctx context.Context, continuityID string) error {
	if err := s.guard("delete"); err != nil {
		return err
	}
	sv, err := s.entry(ctx, continuityID, "delete")
	if err != nil {
		return err
	}
	if sv.State.Deleted() {
		return &StateError{ContinuityID: continuityID, From: sv.State, Op: "delete"}
	}
	sv.State = model.DeleteTarget(s.eng.classes.Moderated(sv.Class))
	return nil
}

// Undelete stages the reverse transition: Deleted becomes Active again
// (PendingActive under moderation), with the attribute snapshot carried
// over unchanged.
func (s *Session) Undelete(ctx context.Context, continuityID string) error {
	if err := s.guard("undelete"); err != nil {
		return err
	}
	sv, err := s.entry(ctx, continuityID, "undelete")
	if err != nil {
		return err
	}
	if sv.State != model.StateDeleted {
		return &StateError{ContinuityID: continuityID, From: sv.State, Op: "undelete"}
	}
	sv.State = model.UndeleteTarget(s.eng.classes.Moderated(sv.Class))
	return nil
}

// Approve stages the moderator transition from a pending state to its
// approved counterpart: PendingActive to Active, PendingDeleted to
// Deleted.
func (s *Session) Approve(ctx context.Context, continuityID string) error {
	if err := s.guard("approve"); err != nil {
		return err
	}
	sv, err := s.entry(ctx, continuityID, "approve")
	if err != nil {
		return err
	}
	approved, aerr := sv.State.Approved()
	if aerr != nil {
		return &StateError{ContinuityID: continuityID, From: sv.State, Op: "approve"}
	}
	sv.State = approved
	return nil
}

// Reject stages the moderator rejection of a pending change: the head
// reverts to a copy of the last approved version. History stays
// append-only; the rejected version remains in the record but never
// becomes visible. A continuity whose very first version is rejected
// reverts to Deleted, since nothing approved ever existed.
func (s *Session) Reject(ctx context.Context, continuityID string) error {
	if err := s.guard("reject"); err != nil {
		return err
	}
	sv, err := s.entry(ctx, continuityID, "reject")
	if err != nil {
		return err
	}
	if !sv.State.Pending() {
		return &StateError{ContinuityID: continuityID, From: sv.State, Op: "reject"}
	}

	history, herr := s.eng.storage.VersionsOf(ctx, continuityID)
	if herr != nil {
		return wrapStorage("reject", herr)
	}
	for i := len(history) - 1; i >= 0; i-- {
		if !history[i].State.Pending() {
			sv.State = history[i].State
			sv.Attrs = history[i].Attrs.Clone()
			return nil
		}
	}

	// Never approved: nothing to revert to.
	sv.State = model.StateDeleted
	return nil
}

// Link stages creation (or restoration) of a versioned association of the
// given class between two endpoints. The endpoint pair is canonically
// ordered, so Link(a, b) and Link(b, a) address the same association
// continuity. Linking an already active association is a StateError.
func (s *Session) Link(ctx context.Context, class, a, b string) error {
	if err := s.guard("link"); err != nil {
		return err
	}
	if class == "" {
		return &SessionError{Op: "link", Reason: "association class must not be empty"}
	}

	left, right := model.CanonicalPair(a, b)
	for _, endpoint := range []string{left, right} {
		if _, err := s.eng.storage.GetContinuity(ctx, endpoint); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return &NotFoundError{ContinuityID: endpoint}
			}
			return wrapStorage("link", err)
		}
	}

	sv, err := s.assocEntry(ctx, class, left, right)
	if err != nil {
		return err
	}
	if sv == nil {
		// First link of this pair: a synthetic continuity is born.
		sv = &store.StagedVersion{
			ContinuityID: s.eng.ids.NewID(),
			Class:        class,
			Left:         left,
			Right:        right,
			New:          true,
			State:        model.InitialState(s.eng.classes.Moderated(class)),
		}
		s.put(sv)
		s.assocKeys[assocKey{class, left, right}] = sv.ContinuityID
		return nil
	}
	if !sv.State.Deleted() {
		return &StateError{ContinuityID: sv.ContinuityID, From: sv.State, Op: "link"}
	}
	sv.State = model.UndeleteTarget(s.eng.classes.Moderated(class))
	return nil
}

// Unlink stages removal of an association: the link version transitions
// to Deleted exactly like an entity delete, so the removal is itself
// versioned and undoable.
func (s *Session) Unlink(ctx context.Context, class, a, b string) error {
	if err := s.guard("unlink"); err != nil {
		return err
	}

	left, right := model.CanonicalPair(a, b)
	sv, err := s.assocEntry(ctx, class, left, right)
	if err != nil {
		return err
	}
	if sv == nil {
		return &NotFoundError{ContinuityID: fmt.Sprintf("%s(%s, %s)", class, left, right)}
	}
	if sv.State.Deleted() {
		return &StateError{ContinuityID: sv.ContinuityID, From: sv.State, Op: "unlink"}
	}
	sv.State = model.DeleteTarget(s.eng.classes.Moderated(class))
	return nil
}

// Purge irreversibly removes a continuity and its entire version history,
// immediately and outside the staged changeset. It requires confirmed to
// be true and the continuity's head to be Active. After a purge every
// resolution of the continuity reports NotFoundError, at every revision.
//
// There is no undo short of restoring the database from backup.
func (s *Session) Purge(ctx context.Context, continuityID string, confirmed bool) error {
	if err := s.guard("purge"); err != nil {
		return err
	}
	if !confirmed {
		return &IrreversibleOperationError{Op: "purge", ContinuityID: continuityID}
	}
	if _, stagedHere := s.staged[continuityID]; stagedHere {
		return &SessionError{Op: "purge", Reason: "continuity has staged changes in this session"}
	}

	head, err := s.eng.storage.Head(ctx, continuityID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return &NotFoundError{ContinuityID: continuityID}
		}
		return wrapStorage("purge", err)
	}
	if head.State != model.StateActive {
		return &StateError{ContinuityID: continuityID, From: head.State, Op: "purge"}
	}

	if err := s.eng.storage.PurgeContinuity(ctx, continuityID); err != nil {
		return wrapStorage("purge", err)
	}
	s.eng.logger.Info("continuity purged", "continuity", continuityID, "author", s.rev.Author)
	return nil
}

// Commit durably persists the session's revision and every staged version
// as one atomic unit, assigning the next global sequence number. On a
// base-sequence mismatch the whole commit aborts with a ConflictError
// enumerating the offending continuities and nothing is written; the
// session stays open so the caller can Rollback or retry staging.
//
// Commit is the only operation with durable effect. After a successful
// commit the session is closed.
func (s *Session) Commit(ctx context.Context) (model.Revision, error) {
	if err := s.guard("commit"); err != nil {
		return model.Revision{}, err
	}
	if len(s.order) == 0 {
		return model.Revision{}, &SessionError{Op: "commit", Reason: "nothing staged"}
	}

	req := store.CommitRequest{Revision: s.rev, Staged: make([]store.StagedVersion, 0, len(s.order))}
	req.Revision.Timestamp = s.eng.clock.Now()
	for _, id := range s.order {
		req.Staged = append(req.Staged, *s.staged[id])
	}

	committed, err := s.eng.storage.CommitRevision(ctx, req)
	if err != nil {
		return model.Revision{}, wrapStorage("commit", err)
	}

	s.rev = committed
	s.state = sessionCommitted
	s.eng.logger.Info("revision committed",
		"revision", committed.ID,
		"sequence", committed.Sequence,
		"author", committed.Author,
		"versions", len(req.Staged),
	)
	return committed, nil
}

// Rollback discards all staged versions. It has no durable effect and is
// safe to call at any point before Commit returns successfully; on a
// closed session it is a no-op.
func (s *Session) Rollback() {
	if s.state != sessionOpen {
		return
	}
	s.staged = make(map[string]*store.StagedVersion)
	s.order = nil
	s.assocKeys = make(map[assocKey]string)
	s.state = sessionRolledBack
	s.eng.logger.Debug("session rolled back", "revision", s.rev.ID)
}

// put records a staged version, preserving first-staged order.
func (s *Session) put(sv *store.StagedVersion) {
	if _, exists := s.staged[sv.ContinuityID]; !exists {
		s.order = append(s.order, sv.ContinuityID)
	}
	s.staged[sv.ContinuityID] = sv
}

// entry returns the staged version for a continuity, reading the
// persisted head (and recording its base sequence) the first time the
// session touches it.
func (s *Session) entry(ctx context.Context, continuityID, op string) (*store.StagedVersion, error) {
	if sv, ok := s.staged[continuityID]; ok {
		return sv, nil
	}

	head, err := s.eng.storage.Head(ctx, continuityID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, &NotFoundError{ContinuityID: continuityID}
		}
		return nil, wrapStorage(op, err)
	}
	cont, err := s.eng.storage.GetContinuity(ctx, continuityID)
	if err != nil {
		return nil, wrapStorage(op, err)
	}

	sv := &store.StagedVersion{
		ContinuityID: continuityID,
		Class:        cont.Class,
		Left:         cont.Left,
		Right:        cont.Right,
		State:        head.State,
		Attrs:        head.Attrs.Clone(),
		BaseSequence: head.Sequence,
	}
	s.put(sv)
	return sv, nil
}

// assocEntry returns the staged version for an association pair, looking
// up the persisted association continuity if the session has not touched
// it yet. Returns (nil, nil) when the pair has never been linked.
func (s *Session) assocEntry(ctx context.Context, class, left, right string) (*store.StagedVersion, error) {
	if id, ok := s.assocKeys[assocKey{class, left, right}]; ok {
		return s.staged[id], nil
	}

	cont, err := s.eng.storage.AssocContinuity(ctx, class, left, right)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, wrapStorage("link", err)
	}

	sv, err := s.entry(ctx, cont.ID, "link")
	if err != nil {
		return nil, err
	}
	s.assocKeys[assocKey{class, left, right}] = cont.ID
	return sv, nil
}

func (s *Session) pending(sv *store.StagedVersion) PendingVersion {
	return PendingVersion{
		ContinuityID: sv.ContinuityID,
		Class:        sv.Class,
		State:        sv.State,
		Attrs:        sv.Attrs.Clone(),
	}
}
