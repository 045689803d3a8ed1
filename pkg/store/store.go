// Package store provides the generic collection primitives of a workflow:
// add with id assignment, reads, update and remove. The primitives never
// enforce cross-element rules; see package workflow for those.
package store

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/dukex/procflow/pkg/models"
	"github.com/dukex/procflow/pkg/schema"
)

// ErrElementNotFound indicates that no element with the given id exists in the collection.
var ErrElementNotFound = errors.New("element not found")

// Query matches elements whose JSON fields strictly equal every queried value.
type Query map[string]any

// Patch holds JSON fields shallow-merged onto an element by Update.
type Patch map[string]any

// NotFoundError wraps ErrElementNotFound with the collection and id looked up.
type NotFoundError struct {
	Collection string
	ID         string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: %s %q", e.Collection, ErrElementNotFound, e.ID)
}

func (e *NotFoundError) Unwrap() error {
	return ErrElementNotFound
}

// Collection gives typed access to one element collection of a workflow.
// Reads return deep copies; editing a returned element never alters the workflow.
type Collection[T models.Element] struct {
	Name      string
	Prefix    string
	items     func(models.Elements) []T
	with      func(models.Elements, []T) models.Elements
	normalize func(map[string]any) (T, error)
	clone     func(T) T
}

var (
	EventListeners = Collection[models.EventListener]{
		Name:      "eventListeners",
		Prefix:    "event_listener",
		items:     eventListeners,
		with:      withEventListeners,
		normalize: schema.NormalizeEventListener,
		clone:     models.EventListener.Clone,
	}
	EventDispatchers = Collection[models.EventDispatcher]{
		Name:      "eventDispatchers",
		Prefix:    "event_dispatcher",
		items:     eventDispatchers,
		with:      withEventDispatchers,
		normalize: schema.NormalizeEventDispatcher,
		clone:     models.EventDispatcher.Clone,
	}
	Gateways = Collection[models.Gateway]{
		Name:      "gateways",
		Prefix:    "gateway",
		items:     gateways,
		with:      withGateways,
		normalize: schema.NormalizeGateway,
		clone:     models.Gateway.Clone,
	}
	Phases = Collection[models.Phase]{
		Name:      "phases",
		Prefix:    "phase",
		items:     phases,
		with:      withPhases,
		normalize: schema.NormalizePhase,
		clone:     models.Phase.Clone,
	}
	Flows = Collection[models.Flow]{
		Name:      "flows",
		Prefix:    "flow",
		items:     flows,
		with:      withFlows,
		normalize: schema.NormalizeFlow,
		clone:     models.Flow.Clone,
	}
)

func eventListeners(e models.Elements) []models.EventListener     { return e.EventListeners }
func eventDispatchers(e models.Elements) []models.EventDispatcher { return e.EventDispatchers }
func gateways(e models.Elements) []models.Gateway                 { return e.Gateways }
func phases(e models.Elements) []models.Phase                     { return e.Phases }
func flows(e models.Elements) []models.Flow                       { return e.Flows }

func withEventListeners(e models.Elements, items []models.EventListener) models.Elements {
	e.EventListeners = items

	return e
}

func withEventDispatchers(e models.Elements, items []models.EventDispatcher) models.Elements {
	e.EventDispatchers = items

	return e
}

func withGateways(e models.Elements, items []models.Gateway) models.Elements {
	e.Gateways = items

	return e
}

func withPhases(e models.Elements, items []models.Phase) models.Elements {
	e.Phases = items

	return e
}

func withFlows(e models.Elements, items []models.Flow) models.Elements {
	e.Flows = items

	return e
}

// UniqueID returns <prefix>_<n> where n is the smallest non-negative integer
// not used by an element of the collection.
func (c Collection[T]) UniqueID(workflow models.Workflow) string {
	used := make(map[int]bool)

	for _, item := range c.items(workflow.Elements) {
		suffix, found := strings.CutPrefix(item.GetID(), c.Prefix+"_")
		if !found {
			continue
		}

		if n, err := strconv.Atoi(suffix); err == nil && n >= 0 && strconv.Itoa(n) == suffix {
			used[n] = true
		}
	}

	n := 0
	for used[n] {
		n++
	}

	return c.Prefix + "_" + strconv.Itoa(n)
}

// Add assigns a fresh id to data, validates it and appends it to the collection.
func (c Collection[T]) Add(workflow models.Workflow, data T) (models.Workflow, error) {
	candidate, err := schema.ToMap(data)
	if err != nil {
		return workflow, err
	}

	candidate["id"] = c.UniqueID(workflow)

	element, err := c.normalize(candidate)
	if err != nil {
		return workflow, err
	}

	items := c.items(workflow.Elements)
	next := make([]T, 0, len(items)+1)
	next = append(next, items...)
	next = append(next, element)

	workflow.Elements = c.with(workflow.Elements, next)

	return workflow, nil
}

// GetAll returns a deep copy of every element of the collection.
func (c Collection[T]) GetAll(workflow models.Workflow) []T {
	items := c.items(workflow.Elements)
	if items == nil {
		return nil
	}

	all := make([]T, len(items))
	for i, item := range items {
		all[i] = c.clone(item)
	}

	return all
}

// GetByID returns the element with the given id.
func (c Collection[T]) GetByID(workflow models.Workflow, id string) (T, bool) {
	items := c.items(workflow.Elements)

	index := c.indexOf(items, id)
	if index < 0 {
		var zero T

		return zero, false
	}

	return c.clone(items[index]), true
}

// GetBy returns the first element matching the query.
func (c Collection[T]) GetBy(workflow models.Workflow, query Query) (T, bool) {
	for _, item := range c.items(workflow.Elements) {
		if matches(item, query) {
			return c.clone(item), true
		}
	}

	var zero T

	return zero, false
}

// GetManyBy returns every element matching the query.
func (c Collection[T]) GetManyBy(workflow models.Workflow, query Query) []T {
	var found []T

	for _, item := range c.items(workflow.Elements) {
		if matches(item, query) {
			found = append(found, c.clone(item))
		}
	}

	return found
}

// Where returns every element accepted by keep.
func (c Collection[T]) Where(workflow models.Workflow, keep func(T) bool) []T {
	var found []T

	for _, item := range c.items(workflow.Elements) {
		if keep(item) {
			found = append(found, c.clone(item))
		}
	}

	return found
}

// GetLast returns the most recently appended element.
func (c Collection[T]) GetLast(workflow models.Workflow) (T, bool) {
	items := c.items(workflow.Elements)
	if len(items) == 0 {
		var zero T

		return zero, false
	}

	return c.clone(items[len(items)-1]), true
}

// Update shallow-merges patch onto the element, validates the merged element
// as a whole and replaces it in place.
func (c Collection[T]) Update(workflow models.Workflow, id string, patch Patch) (models.Workflow, error) {
	items := c.items(workflow.Elements)

	index := c.indexOf(items, id)
	if index < 0 {
		return workflow, &NotFoundError{Collection: c.Name, ID: id}
	}

	if value, ok := patch["id"]; ok && value != id {
		return workflow, &schema.SchemaViolation{
			Subject: c.Name,
			Field:   "id",
			Message: "cannot be changed",
			Violations: []schema.FieldViolation{
				{Field: "id", Rule: "immutable", Message: "cannot be changed"},
			},
		}
	}

	merged, err := schema.ToMap(items[index])
	if err != nil {
		return workflow, err
	}

	maps.Copy(merged, patch)

	element, err := c.normalize(merged)
	if err != nil {
		return workflow, err
	}

	next := slices.Clone(items)
	next[index] = element

	workflow.Elements = c.with(workflow.Elements, next)

	return workflow, nil
}

// Remove filters the element out of the collection. It performs no cascade.
func (c Collection[T]) Remove(workflow models.Workflow, id string) models.Workflow {
	items := c.items(workflow.Elements)
	if c.indexOf(items, id) < 0 {
		return workflow
	}

	next := make([]T, 0, len(items)-1)
	for _, item := range items {
		if item.GetID() != id {
			next = append(next, item)
		}
	}

	workflow.Elements = c.with(workflow.Elements, next)

	return workflow
}

func (c Collection[T]) indexOf(items []T, id string) int {
	return slices.IndexFunc(items, func(item T) bool { return item.GetID() == id })
}

// FindElement resolves an id across every collection of the workflow.
func FindElement(workflow models.Workflow, id string) (models.Element, bool) {
	if element, ok := EventListeners.GetByID(workflow, id); ok {
		return element, true
	}

	if element, ok := EventDispatchers.GetByID(workflow, id); ok {
		return element, true
	}

	if element, ok := Gateways.GetByID(workflow, id); ok {
		return element, true
	}

	if element, ok := Phases.GetByID(workflow, id); ok {
		return element, true
	}

	if element, ok := Flows.GetByID(workflow, id); ok {
		return element, true
	}

	return nil, false
}
