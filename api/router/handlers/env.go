package handlers

import (
	"replicate/core"
	"replicate/models"
)

// Env carries the collaborators the handlers need. The redirect log and
// notices are read straight from the database package.
type Env struct {
	Store     core.SettingsStore
	FieldMode models.FieldMode
	Hosts     *core.HostRegistry
	Rewriter  *core.Rewriter
}
