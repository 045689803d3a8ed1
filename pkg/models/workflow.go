package models

// Workflow is the aggregate root of a process definition. It is treated as an
// immutable value: operations never write into the element slices of a
// workflow they receive, they return a copy holding new slices instead.
type Workflow struct {
	ID       string   `json:"id"                validate:"required"`
	Version  string   `json:"version,omitempty"`
	Elements Elements `json:"elements"`
}

// Elements groups the element collections of a workflow.
type Elements struct {
	EventListeners   []EventListener   `json:"eventListeners,omitempty"   validate:"unique=ID,dive"`
	EventDispatchers []EventDispatcher `json:"eventDispatchers,omitempty" validate:"unique=ID,dive"`
	Gateways         []Gateway         `json:"gateways,omitempty"         validate:"unique=ID,dive"`
	Phases           []Phase           `json:"phases,omitempty"           validate:"unique=ID,dive"`
	Flows            []Flow            `json:"flows,omitempty"            validate:"unique=ID,dive"`
}

// StartListeners returns every START listener of the workflow.
func (w Workflow) StartListeners() []EventListener {
	var listeners []EventListener

	for _, listener := range w.Elements.EventListeners {
		if listener.IsStart() {
			listeners = append(listeners, listener)
		}
	}

	return listeners
}

// EndDispatchers returns every END dispatcher of the workflow.
func (w Workflow) EndDispatchers() []EventDispatcher {
	var dispatchers []EventDispatcher

	for _, dispatcher := range w.Elements.EventDispatchers {
		if dispatcher.IsEnd() {
			dispatchers = append(dispatchers, dispatcher)
		}
	}

	return dispatchers
}
