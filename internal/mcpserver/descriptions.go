package mcpserver

// Tool descriptions with interpretation guidance for LLMs.
// Each description explains what the tool does, when to use it,
// how to interpret results, and what it returns.

func describeScript() string {
	return `Analyzes one GDScript file: its declaration, every method's calls, and the behavior patterns it follows.

USE WHEN:
- Understanding what a script does before editing it
- Checking which signals a script declares, emits, or never uses
- Finding the entry points and internal call flows of a script
- Locating get_node, $Path and %Unique lookups a script depends on

INTERPRETING RESULTS:
- complexity is low, medium, or high from method, signal, and event handler counts
- patterns name idioms such as event_driven, signal_emitter, state_management, ready_initialization
- entry_points are lifecycle methods (_ready, _process, ...) and event handlers (_on_*)
- call_flows are edges from one method to another method of the same script
- unused_signals are declared but never emitted; undeclared_emissions are emitted but never declared
- internal calls target methods of this script, external calls go through an object, builtin calls are engine or GDScript functions

METRICS RETURNED:
- structure: class_name, extends, signals, variables, exports, onready vars, constants, enums, inner classes, methods
- behavioral_analysis: per-method summaries and scene interactions
- behavioral_context: patterns, lifecycle methods, event handlers, complexity
- behavioral_flows: call flows, entry points, signal flows`
}

func describeScene() string {
	return `Analyzes a Godot text scene (.tscn): its node hierarchy, resources, signal connections, and attached scripts.

USE WHEN:
- Getting an overview of how a scene is assembled
- Finding which script drives which node
- Tracing signal connections between nodes and checking their handlers exist
- Reviewing instanced sub-scenes and inherited scenes

INTERPRETING RESULTS:
- node paths are relative to the root; "." is the root itself
- unresolved_scripts lists nodes whose script could not be mapped to a res:// file, with the reason
- connection_flows marks whether the target script defines the connected method (handler_found)
- a script that fails to analyze appears in script_insights with its error and does not fail the scene
- max_depth trims the hierarchy and the script search below the root

METRICS RETURNED:
- structure: root name and type, node count, external and sub resources, hierarchy, connections
- node_script_mapping: node path to script path
- script_insights: the full analyze_script result of every attached script
- scene_insights: aggregated patterns, complexity, lifecycle methods, signals defined and emitted`
}

func describeProject() string {
	return `Analyzes every script and scene of the Godot project containing a directory.

USE WHEN:
- Getting a project-wide picture before a refactoring
- Finding the most referenced scripts and scenes
- Spotting scripts that fail to parse
- Summarizing the behavior patterns a codebase relies on

INTERPRETING RESULTS:
- the project root is the nearest directory holding project.godot
- class_source tells where global classes came from: class_cache, project_classes, or scan
- errors list files that could not be analyzed; the rest of the project is still reported
- metrics rank files by PageRank over dependency, attach, and instance edges
- is_cyclic and cycles show mutual preloads that can break loading

METRICS RETURNED:
- script_count, scene_count, skipped binary scenes
- insights: aggregated patterns, complexity, event handlers, signals
- scenes: root type, node count, attached scripts, instanced scenes
- metrics: nodes, edges, density, components, cycles, per-node PageRank and degree`
}

func describeGraph() string {
	return `Builds the dependency graph of a Godot project as a Mermaid diagram.

USE WHEN:
- Visualizing how scenes, scripts, and resources reference each other
- Finding hub files with many dependents
- Detecting circular preloads
- Explaining project structure to someone new

INTERPRETING RESULTS:
- edges are typed by dependency kind (inheritance, preload, load, class_reference, type_hint, ...) plus attaches and instances for scenes
- class_nodes keeps engine and global classes as nodes; otherwise class references resolve to their scripts
- max_nodes keeps the highest PageRank nodes; max_edges caps the edges between them
- high PageRank marks files many others depend on, directly or indirectly

METRICS RETURNED:
- graph: nodes with type and name, typed edges
- mermaid: the diagram source
- metrics (optional): PageRank, in and out degree per node, density, components, cycles`
}

func describeClasses() string {
	return `Lists the global classes (class_name) and autoload singletons of a Godot project.

USE WHEN:
- Finding which script defines a class name
- Checking what a class extends, directly and at the engine level
- Listing the autoloads available to every script

INTERPRETING RESULTS:
- source is class_cache when .godot/global_script_class_cache.cfg was read, project_classes for the legacy list in project.godot, scan when scripts were scanned instead
- autoloads come from the [autoload] section of project.godot
- an empty list means the project declares no global classes

METRICS RETURNED:
- classes: name, res:// path, base class, engine_base (the engine class the inheritance chain ends in), autoload flag`
}
