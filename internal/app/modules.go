package app

import (
	"github.com/specialistvlad/framesched/internal/registry"
	"github.com/specialistvlad/framesched/modules/print"
	"github.com/specialistvlad/framesched/modules/sleep"
	"github.com/specialistvlad/framesched/modules/socketio"
	"github.com/specialistvlad/framesched/modules/spin"
)

// coreModules returns fresh instances of every module compiled into the
// framesched binary. Some modules keep per-run state, so they are not shared
// between apps.
func coreModules() []registry.Module {
	return []registry.Module{
		&print.Module{},
		&spin.Module{},
		&sleep.Module{},
		&socketio.Module{},
	}
}
