package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/santiagomed/edpgen/core"
	"github.com/santiagomed/edpgen/logger"
)

// stepErrorMsg reports a failed pipeline step to the TUI.
type stepErrorMsg struct {
	step core.StepType
	err  error
}

func (e stepErrorMsg) Error() string {
	return fmt.Sprintf("%v: %v", e.step, e.err)
}

type CliStepPublisher struct {
	stepChan  chan core.StepType
	errorChan chan stepErrorMsg
	logger    logger.Logger
}

func NewCliStepPublisher(logger logger.Logger) *CliStepPublisher {
	return &CliStepPublisher{
		stepChan:  make(chan core.StepType, 100),
		errorChan: make(chan stepErrorMsg, 10),
		logger:    logger,
	}
}

func (p *CliStepPublisher) PublishStep(step core.StepType) {
	select {
	case p.stepChan <- step:
		p.logger.Debug(fmt.Sprintf("Published step: %v", step))
	default:
		p.logger.Warn(fmt.Sprintf("Failed to publish step: %v. Channel full.", step))
	}
}

func (p *CliStepPublisher) Error(step core.StepType, err error) {
	select {
	case p.errorChan <- stepErrorMsg{step: step, err: err}:
		p.logger.Debug(fmt.Sprintf("Published error for step: %v", step))
	default:
		p.logger.Warn(fmt.Sprintf("Failed to publish error for step: %v. Channel full.", step))
	}
}

// listen waits for the next step or error as a tea.Msg.
func (p *CliStepPublisher) listen() tea.Msg {
	select {
	case step := <-p.stepChan:
		return step
	case err := <-p.errorChan:
		return err
	}
}
