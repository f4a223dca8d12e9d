// Package engine defines the contract every animated algorithm implements and
// the value types shared between algorithms, the controller and the control
// panel.
//
// A Simulation owns its samples and model state. It never schedules itself;
// the anim package calls Step once per tick and repaints through the
// render.Scene half of the interface.
package engine
