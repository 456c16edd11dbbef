// Package wizard models the step-by-step filter dialog as an explicit state
// machine, independent of any chat transport.
package wizard

import (
	"errors"
	"fmt"
	"slices"
	"strconv"

	"estate_bot/internal/model"
)

// AnyValue is the toggle value that marks a facet as "does not matter".
const AnyValue = "any"

var (
	// ErrUnexpectedEvent is returned when an event has no transition from the
	// current stage. The session is left unchanged.
	ErrUnexpectedEvent = errors.New("unexpected event")
	// ErrUnknownOption is returned when a toggle names a value the current
	// stage does not offer.
	ErrUnknownOption = errors.New("unknown option")
)

// Stage is a step of the conversation.
type Stage int

// Conversation stages. The six facet stages run in order.
const (
	StageIdle Stage = iota
	StageType
	StageDistrict
	StageCondition
	StageArea
	StageRooms
	StagePrice
	StageResults
	StageAwaitingID
)

var stageNames = map[Stage]string{
	StageIdle:       "idle",
	StageType:       "type",
	StageDistrict:   "district",
	StageCondition:  "condition",
	StageArea:       "area",
	StageRooms:      "rooms",
	StagePrice:      "price",
	StageResults:    "results",
	StageAwaitingID: "awaiting_id",
}

func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return "stage(" + strconv.Itoa(int(s)) + ")"
}

// IsFacet reports whether the stage edits a facet of the filter set.
func (s Stage) IsFacet() bool {
	return s >= StageType && s <= StagePrice
}

// EventKind identifies what the user did.
type EventKind int

// Events accepted by a session.
const (
	EventStart EventKind = iota
	EventToggle
	EventNext
	EventBack
	EventCancel
	EventPage
	EventSearchByID
	EventIDEntered
)

// Event is a user action. Value carries the toggled option or the typed id;
// Page carries the requested results page.
type Event struct {
	Kind  EventKind
	Value string
	Page  int
}

// Effect tells the transport what to do after a transition.
type Effect int

// Effects produced by transitions.
const (
	// EffectRender redraws the prompt and options of the current stage.
	EffectRender Effect = iota
	// EffectReject refuses the action with an alert; the stage is unchanged.
	EffectReject
	// EffectSearch runs the search for the session filters and Session.Page.
	EffectSearch
	// EffectMenu shows the main menu.
	EffectMenu
	// EffectPromptID asks the user to type a listing id.
	EffectPromptID
	// EffectLookup fetches the listing whose id is in Session.ListingID.
	EffectLookup
	// EffectInvalidID tells the user the typed id is not a number.
	EffectInvalidID
)

// guard decides whether a transition may fire. A false result turns the
// transition into EffectReject without changing the stage.
type guard func(s *Session, ev Event) bool

// action mutates the session as part of a transition.
type action func(s *Session, ev Event) error

type key struct {
	from Stage
	kind EventKind
}

type transition struct {
	to     Stage
	effect Effect
	guard  guard
	action action
}

var table = buildTable()

func buildTable() map[key]transition {
	t := map[key]transition{
		{StageType, EventNext}:      {to: StageDistrict, effect: EffectRender, guard: facetReady},
		{StageDistrict, EventNext}:  {to: StageCondition, effect: EffectRender, guard: facetReady},
		{StageCondition, EventNext}: {to: StageArea, effect: EffectRender, guard: facetReady},
		{StageArea, EventNext}:      {to: StageRooms, effect: EffectRender, guard: facetReady},
		{StageRooms, EventNext}:     {to: StagePrice, effect: EffectRender, guard: facetReady},
		{StagePrice, EventNext}:     {to: StageResults, effect: EffectSearch, guard: facetReady, action: firstPage},

		{StageType, EventBack}:      {to: StageIdle, effect: EffectMenu},
		{StageDistrict, EventBack}:  {to: StageType, effect: EffectRender},
		{StageCondition, EventBack}: {to: StageDistrict, effect: EffectRender},
		{StageArea, EventBack}:      {to: StageCondition, effect: EffectRender},
		{StageRooms, EventBack}:     {to: StageArea, effect: EffectRender},
		{StagePrice, EventBack}:     {to: StageRooms, effect: EffectRender},

		{StageResults, EventPage}: {to: StageResults, effect: EffectSearch, guard: validPage, action: setPage},
		{StageIdle, EventPage}:    {to: StageResults, effect: EffectSearch, guard: resumable, action: setPage},

		{StageAwaitingID, EventIDEntered}: {to: StageIdle, effect: EffectLookup, action: setListingID},
	}

	for s := range stageNames {
		t[key{s, EventStart}] = transition{to: StageType, effect: EffectRender, action: reset}
		t[key{s, EventCancel}] = transition{to: StageIdle, effect: EffectMenu}
		t[key{s, EventSearchByID}] = transition{to: StageAwaitingID, effect: EffectPromptID}
		if s.IsFacet() {
			t[key{s, EventToggle}] = transition{to: s, effect: EffectRender, action: toggle}
		}
	}
	return t
}

// Session is the per-chat wizard state.
type Session struct {
	Stage     Stage
	Filters   model.FilterSet
	Page      int
	ListingID int64
}

// Fire applies ev to the session and returns the effect the transport should
// carry out. On error the session is left unchanged.
func (s *Session) Fire(ev Event) (Effect, error) {
	tr, ok := table[key{s.Stage, ev.Kind}]
	if !ok {
		return 0, fmt.Errorf("%w: %d in stage %s", ErrUnexpectedEvent, ev.Kind, s.Stage)
	}

	if tr.guard != nil && !tr.guard(s, ev) {
		return EffectReject, nil
	}

	if tr.action != nil {
		next := *s
		next.Filters = cloneFilters(s.Filters)
		if err := tr.action(&next, ev); err != nil {
			if errors.Is(err, errInvalidID) {
				return EffectInvalidID, nil
			}
			return 0, err
		}
		*s = next
	}

	s.Stage = tr.to
	return tr.effect, nil
}

func facetReady(s *Session, _ Event) bool {
	switch s.Stage {
	case StageType:
		return s.Filters.Type.Ready()
	case StageDistrict:
		return s.Filters.District.Ready()
	case StageCondition:
		return s.Filters.Condition.Ready()
	case StageArea:
		return s.Filters.Area.Ready()
	case StageRooms:
		return s.Filters.Rooms.Ready()
	case StagePrice:
		return s.Filters.Price.Ready()
	}
	return false
}

func validPage(_ *Session, ev Event) bool {
	return ev.Page >= 1
}

func resumable(s *Session, ev Event) bool {
	return ev.Page >= 1 && s.Filters.Complete()
}

func reset(s *Session, _ Event) error {
	*s = Session{}
	return nil
}

func firstPage(s *Session, _ Event) error {
	s.Page = 1
	return nil
}

func setPage(s *Session, ev Event) error {
	s.Page = ev.Page
	return nil
}

var errInvalidID = errors.New("invalid listing id")

func setListingID(s *Session, ev Event) error {
	id, err := strconv.ParseInt(ev.Value, 10, 64)
	if err != nil || id < 1 {
		return errInvalidID
	}
	s.ListingID = id
	return nil
}

func toggle(s *Session, ev Event) error {
	if ev.Value != AnyValue && !slices.ContainsFunc(Options(s.Stage), func(o Option) bool { return o.Value == ev.Value }) {
		return fmt.Errorf("%w %q for stage %s", ErrUnknownOption, ev.Value, s.Stage)
	}

	f := &s.Filters
	switch s.Stage {
	case StageType:
		toggleChoice(&f.Type, ev.Value, ev.Value)
	case StageDistrict:
		toggleChoice(&f.District, ev.Value, ev.Value)
	case StageCondition:
		toggleChoice(&f.Condition, ev.Value, ev.Value)
	case StageRooms:
		n, _ := strconv.Atoi(ev.Value)
		toggleChoice(&f.Rooms, ev.Value, n)
	case StageArea:
		toggleRange(&f.Area, ev.Value)
	case StagePrice:
		toggleRange(&f.Price, ev.Value)
	}
	return nil
}

// toggleChoice flips v in the selection. Turning "any" on clears the
// selection; picking a value turns "any" off.
func toggleChoice[T comparable](c *model.Choice[T], raw string, v T) {
	if raw == AnyValue {
		c.Any = !c.Any
		if c.Any {
			c.Values = nil
		}
		return
	}
	if i := slices.Index(c.Values, v); i >= 0 {
		c.Values = slices.Delete(c.Values, i, i+1)
	} else {
		c.Values = append(c.Values, v)
	}
	c.Any = false
}

func toggleRange(r *model.RangeFacet, token string) {
	if token == AnyValue {
		r.Any = !r.Any
		if r.Any {
			r.Ranges = nil
		}
		return
	}
	if i := slices.Index(r.Ranges, token); i >= 0 {
		r.Ranges = slices.Delete(r.Ranges, i, i+1)
	} else {
		r.Ranges = append(r.Ranges, token)
	}
	r.Any = false
}

func cloneFilters(f model.FilterSet) model.FilterSet {
	f.Type.Values = slices.Clone(f.Type.Values)
	f.District.Values = slices.Clone(f.District.Values)
	f.Condition.Values = slices.Clone(f.Condition.Values)
	f.Rooms.Values = slices.Clone(f.Rooms.Values)
	f.Area.Ranges = slices.Clone(f.Area.Ranges)
	f.Price.Ranges = slices.Clone(f.Price.Ranges)
	return f
}
