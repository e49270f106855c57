package events

import (
	"strconv"

	"fracledger/core/types"
)

const (
	TypeModulePauseToggled = "admin.pauseToggled"
	TypeReporterUpdated    = "admin.reporterUpdated"
)

type ModulePauseToggled struct {
	Module string
	Paused bool
}

func (ModulePauseToggled) EventType() string { return TypeModulePauseToggled }

func (e ModulePauseToggled) Event() *types.Event {
	return &types.Event{Type: TypeModulePauseToggled, Attributes: map[string]string{
		"module": e.Module,
		"paused": strconv.FormatBool(e.Paused),
	}}
}

type ReporterUpdated struct {
	Reporter [20]byte
	Allowed  bool
}

func (ReporterUpdated) EventType() string { return TypeReporterUpdated }

func (e ReporterUpdated) Event() *types.Event {
	return &types.Event{Type: TypeReporterUpdated, Attributes: map[string]string{
		"reporter": formatAccount(e.Reporter),
		"allowed":  strconv.FormatBool(e.Allowed),
	}}
}
