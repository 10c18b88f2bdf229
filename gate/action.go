package gate

// Action is a named ability checked against a policy (e.g. "view", "update").
type Action string

const (
	ActionList   Action = "list"
	ActionView   Action = "view"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// CRUD returns the abilities a resource controller checks, in route order.
func CRUD() []Action {
	return []Action{ActionList, ActionView, ActionCreate, ActionUpdate, ActionDelete}
}
