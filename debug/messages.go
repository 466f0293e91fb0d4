package debug

// Message is a JSON document published to debug clients. Kind is the
// value of its "kind" field.
type Message interface {
	MessageKind() string
}

// BatchKind classifies a batch by the target it draws into.
type BatchKind string

const (
	BatchClip   BatchKind = "Clip"
	BatchCache  BatchKind = "Cache"
	BatchOpaque BatchKind = "Opaque"
	BatchAlpha  BatchKind = "Alpha"
)

// Batch is one draw call.
type Batch struct {
	Kind        BatchKind `json:"kind"`
	Description string    `json:"description"`
	Count       int       `json:"count"`
}

// Target is a render target and the batches drawn into it.
type Target struct {
	Kind    string  `json:"kind"`
	Batches []Batch `json:"batches"`
}

// Add appends a batch. Empty batches are skipped.
func (t *Target) Add(kind BatchKind, description string, count int) {
	if count > 0 {
		t.Batches = append(t.Batches, Batch{Kind: kind, Description: description, Count: count})
	}
}

// Pass is one render pass.
type Pass struct {
	Targets []Target `json:"targets"`
}

// PassList describes the passes of the last frame.
type PassList struct {
	Passes []Pass `json:"passes"`
}

func (PassList) MessageKind() string { return "passes" }

// BatchList is the flat list of batches of the last frame.
type BatchList struct {
	Batches []Batch `json:"batches"`
}

func (BatchList) MessageKind() string { return "batches" }

// TreeNode is a node of a described tree.
type TreeNode struct {
	Description string     `json:"description"`
	Children    []TreeNode `json:"children"`
}

// NewTreeNode returns a leaf.
func NewTreeNode(description string) TreeNode {
	return TreeNode{Description: description, Children: []TreeNode{}}
}

// AddChild appends child.
func (n *TreeNode) AddChild(child TreeNode) {
	n.Children = append(n.Children, child)
}

// AddItem appends a leaf.
func (n *TreeNode) AddItem(description string) {
	n.AddChild(NewTreeNode(description))
}

// DocumentList describes the documents being rendered.
type DocumentList struct {
	Root TreeNode `json:"root"`
}

func (DocumentList) MessageKind() string { return "documents" }

// ClipScrollTree describes the spatial node tree.
type ClipScrollTree struct {
	Root TreeNode `json:"root"`
}

func (ClipScrollTree) MessageKind() string { return "clipscrolltree" }
