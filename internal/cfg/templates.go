package cfg

import "github.com/efebarandurmaz/ompcfg/internal/pattern"

// Entry and exit node ids shared by every template.
const (
	EntryID = "BB_entry"
	ExitID  = "BB_exit"
)

// Synthesize builds the graph template for an archetype. Each call returns a
// fresh graph; values outside the enumeration get the basic template.
func Synthesize(a pattern.Archetype) *Graph {
	switch a {
	case pattern.SparseLU:
		return sparseLU()
	case pattern.TaskParallel:
		return taskParallel()
	case pattern.ParallelFor:
		return parallelFor()
	default:
		return basic()
	}
}

type builder struct {
	g *Graph
}

func newBuilder(name string) *builder {
	return &builder{g: &Graph{Name: name}}
}

func (b *builder) entry(label string) *builder {
	b.g.Nodes = append(b.g.Nodes, Node{ID: EntryID, Label: label, Kind: KindTerminal, Entry: true})
	return b
}

func (b *builder) exit(label string) *builder {
	b.g.Nodes = append(b.g.Nodes, Node{ID: ExitID, Label: label, Kind: KindTerminal, Exit: true})
	return b
}

func (b *builder) node(id, label string, kind NodeKind) *builder {
	b.g.Nodes = append(b.g.Nodes, Node{ID: id, Label: label, Kind: kind})
	return b
}

// chain adds unlabeled edges between consecutive ids.
func (b *builder) chain(ids ...string) *builder {
	for i := 1; i < len(ids); i++ {
		b.g.Edges = append(b.g.Edges, Edge{From: ids[i-1], To: ids[i]})
	}
	return b
}

func (b *builder) edge(e Edge) *builder {
	b.g.Edges = append(b.g.Edges, e)
	return b
}

func sparseLU() *Graph {
	const taskInstances = "task instances"
	return newBuilder(pattern.SparseLU.Title()).
		entry("Entry\nSparseLU Function").
		node("BB_init", "BB_1\nInitialization\nMessage output", KindPlain).
		node("BB_parallel_start", "BB_2\n#pragma omp parallel\nThread team creation", KindParallel).
		node("BB_k_loop", "BB_3\nfor (kk=0; kk<size; kk++)", KindPlain).
		node("BB_single_lu0", "BB_4\n#pragma omp single\nlu0() call", KindSync).
		node("BB_for1_start", "BB_5\n#pragma omp for nowait\nj-loop start", KindLoop).
		node("BB_fwd_task", "BB_6\n#pragma omp task untied\nfwd() task creation", KindTask).
		node("BB_for2_start", "BB_7\n#pragma omp for\ni-loop start", KindLoop).
		node("BB_bdiv_task", "BB_8\n#pragma omp task untied\nbdiv() task creation", KindTask).
		node("BB_for3_start", "BB_9\n#pragma omp for private(jj)\ni-loop for bmod", KindLoop).
		node("BB_bmod_inner", "BB_10\nInner j-loop\nNULL check", KindPlain).
		node("BB_bmod_task", "BB_11\n#pragma omp task untied\nbmod() task creation", KindTask).
		node("BB_k_continue", "BB_12\nk-loop continue\nImplicit barrier", KindSync).
		node("BB_parallel_end", "BB_13\nParallel region end\nThread team join", KindParallel).
		exit("Exit\nFunction return").
		chain(EntryID, "BB_init", "BB_parallel_start", "BB_k_loop", "BB_single_lu0",
			"BB_for1_start", "BB_fwd_task", "BB_for2_start", "BB_bdiv_task",
			"BB_for3_start", "BB_bmod_inner", "BB_bmod_task", "BB_k_continue").
		edge(Edge{From: "BB_k_continue", To: "BB_k_loop", Label: "k++"}).
		edge(Edge{From: "BB_k_loop", To: "BB_parallel_end", Label: "k >= size"}).
		chain("BB_parallel_end", ExitID).
		edge(Edge{From: "BB_fwd_task", To: "BB_fwd_task", Label: taskInstances, Repeat: true, Color: "red"}).
		edge(Edge{From: "BB_bdiv_task", To: "BB_bdiv_task", Label: taskInstances, Repeat: true, Color: "red"}).
		edge(Edge{From: "BB_bmod_task", To: "BB_bmod_task", Label: taskInstances, Repeat: true, Color: "red"}).
		g
}

func taskParallel() *Graph {
	return newBuilder(pattern.TaskParallel.Title()).
		entry("Entry\nFunction Start").
		node("BB_parallel_start", "BB_1\n#pragma omp parallel\nThread team creation", KindParallel).
		node("BB_for_start", "BB_2\n#pragma omp for\nParallel for loop", KindLoop).
		node("BB_task_create", "BB_3\n#pragma omp task\nTask creation", KindTask).
		node("BB_task_work", "BB_4\nTask computation\nWork execution", KindTask).
		node("BB_sync", "BB_5\nImplicit barrier\nSynchronization", KindSync).
		node("BB_parallel_end", "BB_6\nParallel region end", KindParallel).
		exit("Exit\nFunction return").
		chain(EntryID, "BB_parallel_start", "BB_for_start", "BB_task_create",
			"BB_task_work", "BB_sync", "BB_parallel_end", ExitID).
		edge(Edge{From: "BB_task_create", To: "BB_task_create", Label: "multiple tasks", Repeat: true}).
		g
}

func parallelFor() *Graph {
	return newBuilder(pattern.ParallelFor.Title()).
		entry("Entry\nFunction Start").
		node("BB_parallel_start", "BB_1\n#pragma omp parallel\nThread team creation", KindParallel).
		node("BB_for_start", "BB_2\n#pragma omp for\nLoop distribution", KindLoop).
		node("BB_loop_body", "BB_3\nLoop body\nComputation", KindPlain).
		node("BB_barrier", "BB_4\nImplicit barrier\nSynchronization", KindSync).
		node("BB_parallel_end", "BB_5\nParallel region end", KindParallel).
		exit("Exit\nFunction return").
		chain(EntryID, "BB_parallel_start", "BB_for_start", "BB_loop_body").
		edge(Edge{From: "BB_loop_body", To: "BB_loop_body", Label: "iterations", Repeat: true}).
		chain("BB_loop_body", "BB_barrier", "BB_parallel_end", ExitID).
		g
}

func basic() *Graph {
	return newBuilder(pattern.Basic.Title()).
		entry("Entry\nFunction Start").
		node("BB_sequential", "BB_1\nSequential code\nComputation", KindPlain).
		exit("Exit\nFunction return").
		chain(EntryID, "BB_sequential", ExitID).
		g
}
