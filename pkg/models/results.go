package models

// MethodSummary aggregates the call facts derived from one method body.
type MethodSummary struct {
	Name           string       `json:"name" toon:"name"`
	LineNumber     int          `json:"line_number" toon:"line_number"`
	Parameters     []Parameter  `json:"parameters" toon:"parameters"`
	ReturnType     string       `json:"return_type,omitempty" toon:"return_type,omitempty"`
	InternalCalls  []string     `json:"internal_calls" toon:"internal_calls"`
	ExternalCalls  []string     `json:"external_calls" toon:"external_calls"`
	BuiltinCalls   []string     `json:"builtin_calls" toon:"builtin_calls"`
	SignalsEmitted []string     `json:"signals_emitted" toon:"signals_emitted"`
	Calls          []CallRecord `json:"calls,omitempty" toon:"calls,omitempty"`
}

// SignalConnection is a `.connect(` call found in a method body.
type SignalConnection struct {
	Source  string `json:"source" toon:"source"`
	Signal  string `json:"signal" toon:"signal"`
	Handler string `json:"handler,omitempty" toon:"handler,omitempty"`
	Method  string `json:"method" toon:"method"`
	Line    int    `json:"line" toon:"line"`
}

// SceneInteractions lists how a script touches the scene tree.
type SceneInteractions struct {
	NodeQueries           []string           `json:"node_queries" toon:"node_queries"`
	TreeManipulation      []string           `json:"tree_manipulation" toon:"tree_manipulation"`
	SceneLoading          []string           `json:"scene_loading" toon:"scene_loading"`
	DownwardCommunication []string           `json:"downward_communication" toon:"downward_communication"`
	UpwardCommunication   []string           `json:"upward_communication" toon:"upward_communication"`
	SignalConnections     []SignalConnection `json:"signal_connections" toon:"signal_connections"`
}

// NewSceneInteractions returns interactions with non-nil lists.
func NewSceneInteractions() SceneInteractions {
	return SceneInteractions{
		NodeQueries:           make([]string, 0),
		TreeManipulation:      make([]string, 0),
		SceneLoading:          make([]string, 0),
		DownwardCommunication: make([]string, 0),
		UpwardCommunication:   make([]string, 0),
		SignalConnections:     make([]SignalConnection, 0),
	}
}

// BehavioralAnalysis is the behavior section of a ScriptResult.
type BehavioralAnalysis struct {
	PatternCount      int               `json:"pattern_count" toon:"pattern_count"`
	SignalCount       int               `json:"signal_count" toon:"signal_count"`
	VariableCount     int               `json:"variable_count" toon:"variable_count"`
	MethodSummaries   []MethodSummary   `json:"method_summaries" toon:"method_summaries"`
	SceneInteractions SceneInteractions `json:"scene_interactions" toon:"scene_interactions"`
}

// BehavioralContext extends the script insights with the names behind the
// counters.
type BehavioralContext struct {
	BehavioralInsights
	EventHandlers      []string `json:"event_handlers" toon:"event_handlers"`
	ExportedProperties []string `json:"exported_properties" toon:"exported_properties"`
	StateVariables     []string `json:"state_variables" toon:"state_variables"`
}

// SignalFlow lists the methods emitting a signal.
type SignalFlow struct {
	Signal   string   `json:"signal" toon:"signal"`
	Declared bool     `json:"declared" toon:"declared"`
	Emitters []string `json:"emitters" toon:"emitters"`
}

// CallEdge is an internal method-to-method call.
type CallEdge struct {
	From string `json:"from" toon:"from"`
	To   string `json:"to" toon:"to"`
}

// BehavioralFlows describes how control and signals move through a script.
type BehavioralFlows struct {
	SignalFlows         []SignalFlow `json:"signal_flows" toon:"signal_flows"`
	CallFlows           []CallEdge   `json:"call_flows" toon:"call_flows"`
	EntryPoints         []string     `json:"entry_points" toon:"entry_points"`
	UnusedSignals       []string     `json:"unused_signals" toon:"unused_signals"`
	UndeclaredEmissions []string     `json:"undeclared_emissions" toon:"undeclared_emissions"`
}

// ScriptResult is the outcome of analyzing one script. On failure Structure
// and the behavioral sections are nil and Error is set.
type ScriptResult struct {
	ScriptPath         string              `json:"script_path" toon:"script_path"`
	Structure          *ScriptDeclaration  `json:"structure" toon:"structure"`
	BehavioralAnalysis *BehavioralAnalysis `json:"behavioral_analysis,omitempty" toon:"behavioral_analysis,omitempty"`
	BehavioralContext  *BehavioralContext  `json:"behavioral_context,omitempty" toon:"behavioral_context,omitempty"`
	BehavioralFlows    *BehavioralFlows    `json:"behavioral_flows,omitempty" toon:"behavioral_flows,omitempty"`
	Fingerprint        string              `json:"fingerprint,omitempty" toon:"fingerprint,omitempty"`
	Error              string              `json:"error,omitempty" toon:"error,omitempty"`
}

// Failed reports whether the analysis produced an error result.
func (r *ScriptResult) Failed() bool {
	return r.Error != ""
}

// FailedScript returns a terminal error result for path.
func FailedScript(path string, err error) *ScriptResult {
	return &ScriptResult{ScriptPath: path, Error: err.Error()}
}

// SceneStructure is the structural section of a SceneResult.
type SceneStructure struct {
	RootName         string            `json:"root_name" toon:"root_name"`
	RootType         string            `json:"root_type,omitempty" toon:"root_type,omitempty"`
	NodeCount        int               `json:"node_count" toon:"node_count"`
	Hierarchy        *SceneNode        `json:"hierarchy" toon:"hierarchy"`
	Connections      []SceneConnection `json:"connections,omitempty" toon:"connections,omitempty"`
	ExtResources     ExtResourceMap    `json:"ext_resources" toon:"ext_resources"`
	SubResourceCount int               `json:"sub_resource_count" toon:"sub_resource_count"`
}

// UnresolvedScript is a script reference the aggregator could not follow.
type UnresolvedScript struct {
	NodePath  string `json:"node_path" toon:"node_path"`
	Reference string `json:"reference" toon:"reference"`
	Reason    string `json:"reason" toon:"reason"`
}

// SceneResult is the outcome of analyzing one scene file.
type SceneResult struct {
	ScenePath         string                   `json:"scene_path" toon:"scene_path"`
	Structure         *SceneStructure          `json:"structure" toon:"structure"`
	ScriptInsights    map[string]*ScriptResult `json:"script_insights,omitempty" toon:"script_insights,omitempty"`
	NodeScriptMapping []NodeScript             `json:"node_script_mapping" toon:"node_script_mapping"`
	SceneInsights     *SceneInsights           `json:"scene_insights,omitempty" toon:"scene_insights,omitempty"`
	UnresolvedScripts []UnresolvedScript       `json:"unresolved_scripts,omitempty" toon:"unresolved_scripts,omitempty"`
	Error             string                   `json:"error,omitempty" toon:"error,omitempty"`
}

// Failed reports whether the scene could not be parsed.
func (r *SceneResult) Failed() bool {
	return r.Error != ""
}
