package mux

import (
	"fmt"
	"strconv"
)

// commandSeparator joins the isolation directive and the job command.
const commandSeparator = " && "

// GPUWindowName is the window name used for a GPU's jobs.
func GPUWindowName(gpu int) string {
	return "gpu-" + strconv.Itoa(gpu)
}

// IsolationDirective returns the shell command that restricts a job to one device.
func IsolationDirective(variable string, gpu int) string {
	return fmt.Sprintf("export %s=%d", variable, gpu)
}

// GPUWindow is the window for one accelerator: named gpu-N and kept at
// index N, so "the job on GPU N" can always be found again by id alone.
type GPUWindow struct {
	gpu       int
	window    *Window
	directive string
}

func NewGPUWindow(conn *Connector, sessionName string, gpu int) (*GPUWindow, error) {
	if err := validateIndex(gpu); err != nil {
		return nil, opError("open gpu window", sessionName, "", gpu, err)
	}
	w, err := NewWindow(conn, sessionName, GPUWindowName(gpu), AtIndex(gpu))
	if err != nil {
		return nil, err
	}
	return &GPUWindow{
		gpu:       gpu,
		window:    w,
		directive: IsolationDirective(conn.layout.IsolationVar, gpu),
	}, nil
}

func (g *GPUWindow) GPU() int { return g.gpu }

func (g *GPUWindow) Window() *Window { return g.window }

// Run submits cmd prefixed with the isolation directive for this GPU.
func (g *GPUWindow) Run(cmd string) error {
	return g.window.Run(g.directive + commandSeparator + cmd)
}
