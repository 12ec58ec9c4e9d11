// Package nodeconfig drives the configuration of one workflow node: connection selection,
// action selection, schema resolution and the editable draft handed back on submit.
package nodeconfig

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/dukex/operion-builder/pkg/catalog"
	"github.com/dukex/operion-builder/pkg/models"
	"golang.org/x/sync/errgroup"
)

// Placeholder is the "nothing selected" value of the connection, action and field mapping selectors.
const Placeholder = "placeholder"

var (
	ErrNoCatalog           = errors.New("catalog client is required")
	ErrInvalidMode         = errors.New("invalid session mode")
	ErrNodeRequired        = errors.New("configure mode requires a node")
	ErrNotOpen             = errors.New("session is not open")
	ErrClosed              = errors.New("session is closed")
	ErrUnknownConnection   = errors.New("unknown connection")
	ErrNoConnection        = errors.New("select a connection first")
	ErrActionsLoading      = errors.New("actions are still loading")
	ErrUnknownAction       = errors.New("unknown action")
	ErrUnknownFieldMapping = errors.New("unknown field mapping")
	ErrNoFieldMapping      = errors.New("select a field mapping first")
	ErrCannotSubmit        = errors.New("node is incomplete")
)

type Config struct {
	Catalog catalog.Client

	// Logger receives fetch failures. Defaults to slog.Default().
	Logger *slog.Logger

	Mode Mode

	// Node is the node being edited in configure mode.
	Node *models.WorkflowNode

	// WorkflowNodes are all nodes of the workflow, used for variable references.
	WorkflowNodes []*models.WorkflowNode

	// Connections skips the connection listing when set.
	Connections []models.Connection
}

// State is a copy of the observable session state.
type State struct {
	Phase                Phase
	Mode                 Mode
	Draft                models.NodeDraft
	Connections          []models.Connection
	Actions              []models.Action
	FieldMappings        []models.FieldMapping
	SelectedFieldMapping string
	LoadingActions       bool
	LoadingFieldMappings bool
	LoadingActionSchema  bool
	CanSubmit            bool
}

// Session holds the draft of one node while it is being configured. Selections are
// applied synchronously; catalog fetches run in the background and their results are
// dropped when a newer selection or Cancel happened in the meantime.
type Session struct {
	catalog       catalog.Client
	logger        *slog.Logger
	mode          Mode
	node          *models.WorkflowNode
	workflowNodes []*models.WorkflowNode

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu                   sync.Mutex
	phase                Phase
	draft                models.NodeDraft
	connections          []models.Connection
	actions              []models.Action
	fieldMappings        []models.FieldMapping
	selectedFieldMapping string
	action               *models.Action
	loadingActions       bool
	loadingFieldMappings bool
	loadingActionSchema  bool
	hydrated             bool

	// connGen keys the action and field mapping fetches, actionGen the action detail fetch.
	connGen   uint64
	actionGen uint64
}

func NewSession(cfg Config) (*Session, error) {
	if cfg.Catalog == nil {
		return nil, ErrNoCatalog
	}

	if !cfg.Mode.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMode, cfg.Mode)
	}

	if cfg.Mode == ModeConfigure && cfg.Node == nil {
		return nil, ErrNodeRequired
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Session{
		catalog:       cfg.Catalog,
		logger:        logger.With("module", "nodeconfig"),
		mode:          cfg.Mode,
		node:          cfg.Node,
		workflowNodes: cfg.WorkflowNodes,
		connections:   cfg.Connections,
		ctx:           ctx,
		cancel:        cancel,
		phase:         PhaseIdle,
	}, nil
}

// Open seeds the draft and loads the customer connections when none were given.
// In configure mode a node with a connection immediately starts loading its actions.
func (s *Session) Open(ctx context.Context) error {
	s.mu.Lock()

	if s.phase == PhaseClosed {
		s.mu.Unlock()

		return ErrClosed
	}

	s.phase = PhaseInitializing

	if s.mode == ModeConfigure {
		s.draft = models.DraftFromNode(s.node)
	} else {
		s.draft = models.EmptyDraft()
	}

	s.actions = []models.Action{}
	s.fieldMappings = []models.FieldMapping{}
	needConnections := s.connections == nil
	s.mu.Unlock()

	if needConnections {
		connections := catalog.FetchOrDefault(ctx, s.logger, "connections", s.catalog.ListConnections, []models.Connection{})
		if connections == nil {
			connections = []models.Connection{}
		}

		s.mu.Lock()
		s.connections = connections
		s.mu.Unlock()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase == PhaseClosed {
		return ErrClosed
	}

	if s.mode == ModeConfigure && s.draft.IntegrationKey != "" && s.draft.ConnectionID != "" {
		s.startConnectionFetches(s.draft.IntegrationKey)

		return nil
	}

	s.phase = PhaseSelectingConnection

	return nil
}

func (s *Session) checkOpen() error {
	switch s.phase {
	case PhaseIdle, PhaseInitializing:
		return ErrNotOpen
	case PhaseClosed:
		return ErrClosed
	default:
		return nil
	}
}

func (s *Session) findConnection(id string) *models.Connection {
	for i := range s.connections {
		if s.connections[i].ID == id {
			return &s.connections[i]
		}
	}

	return nil
}

func (s *Session) findAction(key string) *models.Action {
	for i := range s.actions {
		if s.actions[i].Key == key {
			return &s.actions[i]
		}
	}

	return nil
}

// SelectConnection binds the draft to a connection and starts loading its actions and
// field mappings. The action selection is always cleared. The placeholder clears the connection.
func (s *Session) SelectConnection(connectionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.checkOpen()
	if err != nil {
		return err
	}

	var connection *models.Connection

	if connectionID != "" && connectionID != Placeholder {
		connection = s.findConnection(connectionID)
		if connection == nil {
			return fmt.Errorf("%w: %s", ErrUnknownConnection, connectionID)
		}
	}

	s.clearAction()
	s.actions = []models.Action{}
	s.fieldMappings = []models.FieldMapping{}
	s.selectedFieldMapping = ""

	if connection == nil {
		s.connGen++
		s.draft.ConnectionID = ""
		s.draft.IntegrationKey = ""
		s.loadingActions = false
		s.loadingFieldMappings = false
		s.phase = PhaseSelectingConnection

		return nil
	}

	s.draft.ConnectionID = connection.ID
	s.draft.IntegrationKey = connection.IntegrationKey()
	s.startConnectionFetches(s.draft.IntegrationKey)

	return nil
}

// clearAction resets the action selection and invalidates any in-flight detail fetch.
func (s *Session) clearAction() {
	s.actionGen++
	s.draft.ActionKey = ""
	s.draft.ActionID = ""
	s.draft.OutputMapping = nil
	s.action = nil
	s.loadingActionSchema = false
}

// startConnectionFetches loads actions and field mappings concurrently. Each result is
// applied on its own so one failing or hanging fetch never blocks the other.
func (s *Session) startConnectionFetches(integrationKey string) {
	s.connGen++
	gen := s.connGen

	s.loadingActions = true
	s.loadingFieldMappings = integrationKey != ""
	s.phase = PhaseLoadingActions

	s.wg.Add(1)

	go func() {
		defer s.wg.Done()

		var group errgroup.Group

		group.Go(func() error {
			actions := catalog.FetchOrDefault(s.ctx, s.logger, "actions", func(ctx context.Context) ([]models.Action, error) {
				return s.catalog.ListActions(ctx, integrationKey)
			}, []models.Action{})

			s.applyActions(gen, actions)

			return nil
		})

		if integrationKey != "" {
			group.Go(func() error {
				mappings := catalog.FetchOrDefault(s.ctx, s.logger, "field mappings", func(ctx context.Context) ([]models.FieldMapping, error) {
					return s.catalog.ListFieldMappings(ctx, integrationKey)
				}, []models.FieldMapping{})

				s.applyFieldMappings(gen, mappings)

				return nil
			})
		}

		_ = group.Wait()
	}()
}

func (s *Session) applyActions(gen uint64, actions []models.Action) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase == PhaseClosed || gen != s.connGen {
		s.logger.Debug("discarding stale actions", "generation", gen)

		return
	}

	if actions == nil {
		actions = []models.Action{}
	}

	s.actions = actions
	s.loadingActions = false

	if s.phase == PhaseLoadingActions {
		if s.draft.ActionKey != "" {
			s.phase = PhaseReady
		} else {
			s.phase = PhaseSelectingAction
		}
	}

	s.maybeHydrateOutputMapping()
}

func (s *Session) applyFieldMappings(gen uint64, mappings []models.FieldMapping) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase == PhaseClosed || gen != s.connGen {
		s.logger.Debug("discarding stale field mappings", "generation", gen)

		return
	}

	if mappings == nil {
		mappings = []models.FieldMapping{}
	}

	s.fieldMappings = mappings
	s.selectedFieldMapping = ""
	s.loadingFieldMappings = false
}

// SelectAction chooses an action of the loaded list by key and starts fetching its detail.
// An untouched empty name becomes "<connection label> <action name>". The placeholder
// clears the action.
func (s *Session) SelectAction(actionKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.checkOpen()
	if err != nil {
		return err
	}

	if actionKey == "" || actionKey == Placeholder {
		s.clearAction()

		if s.draft.ConnectionID != "" && !s.loadingActions {
			s.phase = PhaseSelectingAction
		}

		return nil
	}

	if s.draft.ConnectionID == "" {
		return ErrNoConnection
	}

	if s.loadingActions {
		return ErrActionsLoading
	}

	found := s.findAction(actionKey)
	if found == nil {
		return fmt.Errorf("%w: %s", ErrUnknownAction, actionKey)
	}

	s.clearAction()
	s.draft.ActionKey = found.Key

	if s.draft.Name == "" {
		s.draft.Name = synthesizeName(s.findConnection(s.draft.ConnectionID), found)
	}

	s.startActionFetch(found.ID)

	return nil
}

func synthesizeName(connection *models.Connection, action *models.Action) string {
	label := connection.Label()
	if label == "" {
		return action.DisplayName()
	}

	return label + " " + action.DisplayName()
}

func (s *Session) startActionFetch(actionID string) {
	gen := s.actionGen

	s.loadingActionSchema = true
	s.phase = PhaseLoadingActionSchema

	s.wg.Add(1)

	go func() {
		defer s.wg.Done()

		detail := catalog.FetchOrDefault(s.ctx, s.logger, "action", func(ctx context.Context) (*models.Action, error) {
			return s.catalog.GetAction(ctx, actionID)
		}, nil)

		s.mu.Lock()
		defer s.mu.Unlock()

		if s.phase == PhaseClosed || gen != s.actionGen {
			s.logger.Debug("discarding stale action detail", "action_id", actionID)

			return
		}

		s.loadingActionSchema = false
		s.phase = PhaseReady

		if detail == nil {
			return
		}

		s.action = detail

		if detail.DefaultOutputSchema != nil {
			s.draft.OutputMapping = maps.Clone(detail.DefaultOutputSchema)
			s.draft.ActionID = actionID
		}
	}()
}

// maybeHydrateOutputMapping fetches the output schema once for an edited node that has an
// action id but no recorded output mapping, after its action list has loaded. A present
// output mapping is never refreshed.
func (s *Session) maybeHydrateOutputMapping() {
	if s.mode != ModeConfigure || s.hydrated {
		return
	}

	if s.draft.ActionKey == "" || s.draft.ActionID == "" || s.draft.OutputMapping != nil || len(s.actions) == 0 {
		return
	}

	s.hydrated = true
	gen := s.actionGen
	actionID := s.draft.ActionID

	s.wg.Add(1)

	go func() {
		defer s.wg.Done()

		detail := catalog.FetchOrDefault(s.ctx, s.logger, "existing action", func(ctx context.Context) (*models.Action, error) {
			return s.catalog.GetAction(ctx, actionID)
		}, nil)

		s.mu.Lock()
		defer s.mu.Unlock()

		if detail == nil || s.phase == PhaseClosed || gen != s.actionGen {
			return
		}

		s.action = detail

		if detail.DefaultOutputSchema != nil && s.draft.OutputMapping == nil {
			s.draft.OutputMapping = maps.Clone(detail.DefaultOutputSchema)
		}
	}()
}

// SetName sets the node name.
func (s *Session) SetName(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.checkOpen()
	if err != nil {
		return err
	}

	s.draft.Name = name

	return nil
}

// SetInputMapping stores the value produced by the input editor as is.
func (s *Session) SetInputMapping(value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.checkOpen()
	if err != nil {
		return err
	}

	s.draft.InputMapping = value

	return nil
}

// SelectFieldMapping picks one of the loaded field mappings. The placeholder clears it.
func (s *Session) SelectFieldMapping(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.checkOpen()
	if err != nil {
		return err
	}

	if key == "" || key == Placeholder {
		s.selectedFieldMapping = ""

		return nil
	}

	for _, mapping := range s.fieldMappings {
		if mapping.Key == key {
			s.selectedFieldMapping = key

			return nil
		}
	}

	return fmt.Errorf("%w: %s", ErrUnknownFieldMapping, key)
}

// OpenFieldMapping returns the configuration URL of the selected field mapping.
func (s *Session) OpenFieldMapping(ctx context.Context) (string, error) {
	s.mu.Lock()

	err := s.checkOpen()
	if err != nil {
		s.mu.Unlock()

		return "", err
	}

	connectionID := s.draft.ConnectionID
	mappingKey := s.selectedFieldMapping
	s.mu.Unlock()

	if connectionID == "" {
		return "", ErrNoConnection
	}

	if mappingKey == "" {
		return "", ErrNoFieldMapping
	}

	return s.catalog.OpenFieldMappingConfiguration(ctx, connectionID, mappingKey)
}

func (s *Session) canSubmit() bool {
	if s.checkOpen() != nil || s.draft.Name == "" {
		return false
	}

	if s.mode == ModeConfigure {
		return true
	}

	return s.draft.ConnectionID != "" && s.draft.ActionKey != ""
}

// CanSubmit reports whether the draft has a name and, when creating, a connection and an action.
func (s *Session) CanSubmit() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.canSubmit()
}

// Submit closes the session and hands the draft to fn. It performs no I/O.
func (s *Session) Submit(fn func(models.NodeDraft)) error {
	s.mu.Lock()

	if !s.canSubmit() {
		err := s.checkOpen()
		s.mu.Unlock()

		if err != nil {
			return err
		}

		return ErrCannotSubmit
	}

	draft := s.draft
	s.close()
	s.mu.Unlock()

	fn(draft)

	return nil
}

// Cancel discards the draft and drops every pending fetch result.
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.close()
}

func (s *Session) close() {
	s.phase = PhaseClosed
	s.draft = models.NodeDraft{}
	s.cancel()
}

// Wait blocks until every background fetch has finished.
func (s *Session) Wait() {
	s.wg.Wait()
}

func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return State{
		Phase:                s.phase,
		Mode:                 s.mode,
		Draft:                s.draft,
		Connections:          slices.Clone(s.connections),
		Actions:              slices.Clone(s.actions),
		FieldMappings:        slices.Clone(s.fieldMappings),
		SelectedFieldMapping: s.selectedFieldMapping,
		LoadingActions:       s.loadingActions,
		LoadingFieldMappings: s.loadingFieldMappings,
		LoadingActionSchema:  s.loadingActionSchema,
		CanSubmit:            s.canSubmit(),
	}
}

// InputSchema returns the input schema of the selected action, or nil while unknown.
func (s *Session) InputSchema() models.Schema {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.draft.ActionKey == "" || s.draft.ConnectionID == "" {
		return nil
	}

	if s.action != nil && s.action.Key == s.draft.ActionKey && s.action.InputSchema != nil {
		return s.action.InputSchema
	}

	if listed := s.findAction(s.draft.ActionKey); listed != nil {
		return listed.InputSchema
	}

	return nil
}

// VariablesSchema describes the outputs of every other workflow node that has an output
// mapping, keyed by node id. The node being edited is never included.
func (s *Session) VariablesSchema() models.Schema {
	selfID := ""
	if s.node != nil {
		selfID = s.node.ID
	}

	return VariablesSchema(s.workflowNodes, selfID)
}

// VariablesSchema builds the reference schema of nodes, excluding the node with selfID.
func VariablesSchema(nodes []*models.WorkflowNode, selfID string) models.Schema {
	properties := make(map[string]any)

	for _, node := range nodes {
		if node == nil || node.ID == selfID || node.OutputMapping == nil {
			continue
		}

		entry := maps.Clone(map[string]any(node.OutputMapping))
		entry["title"] = fmt.Sprintf("%s (%s)", node.Name, node.Type)
		entry["description"] = "Output from " + node.Name

		properties[node.ID] = entry
	}

	return models.Schema{
		"type":       "object",
		"properties": properties,
	}
}
