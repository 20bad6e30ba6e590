package workflow

import (
	"fmt"

	"shortpipe/internal/queue"
	"shortpipe/internal/scoring"
	"shortpipe/internal/stage"
)

// StageSet carries one handler per pipeline stage. All five are
// required; the daemon wires real collaborators, tests substitute fakes.
type StageSet struct {
	Transcriber      stage.Handler
	Segmenter        stage.Handler
	TemplateSelector stage.Handler
	Dispositioner    stage.Handler
	Renderer         stage.Handler
}

// ConfigureStages registers the stage table. Transcribe, segment, and
// render hold an intermediate processing status while their collaborator
// runs; template assignment and disposition are single-write stages. The
// disposition outcome depends on the decision persisted at scoring time,
// so its done status is resolved per item.
func (m *Manager) ConfigureStages(set StageSet) error {
	named := map[string]stage.Handler{
		"transcribe":      set.Transcriber,
		"segment":         set.Segmenter,
		"assign-template": set.TemplateSelector,
		"disposition":     set.Dispositioner,
		"render":          set.Renderer,
	}
	for name, handler := range named {
		if handler == nil {
			return fmt.Errorf("stage %s has no handler", name)
		}
	}

	m.stages = []pipelineStage{
		{
			name:             "transcribe",
			handler:          set.Transcriber,
			startStatus:      queue.StatusDiscovered,
			processingStatus: queue.StatusTranscribing,
			doneStatus:       queue.StatusTranscribed,
		},
		{
			name:             "segment",
			handler:          set.Segmenter,
			startStatus:      queue.StatusTranscribed,
			processingStatus: queue.StatusSegmenting,
			doneStatus:       queue.StatusScored,
		},
		{
			name:        "assign-template",
			handler:     set.TemplateSelector,
			startStatus: queue.StatusScored,
			doneStatus:  queue.StatusTemplateAssigned,
		},
		{
			name:        "disposition",
			handler:     set.Dispositioner,
			startStatus: queue.StatusTemplateAssigned,
			doneFor: func(item *queue.Item) (queue.Status, error) {
				return scoring.StatusForDisposition(item.Disposition)
			},
		},
		{
			name:             "render",
			handler:          set.Renderer,
			startStatus:      queue.StatusApproved,
			processingStatus: queue.StatusRendering,
			doneStatus:       queue.StatusPublishReady,
		},
	}

	m.stageByStart = make(map[queue.Status]pipelineStage, len(m.stages))
	m.pollStatuses = make([]queue.Status, 0, len(m.stages))
	for _, stg := range m.stages {
		if _, dup := m.stageByStart[stg.startStatus]; dup {
			return fmt.Errorf("duplicate stage for status %s", stg.startStatus)
		}
		m.stageByStart[stg.startStatus] = stg
		m.pollStatuses = append(m.pollStatuses, stg.startStatus)
	}
	return nil
}
