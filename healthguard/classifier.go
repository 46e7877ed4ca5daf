package healthguard

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Classifier returns the discrete class for an already scaled feature vector.
type Classifier interface {
	Predict(x FeatureVector) (int, error)
	NumFeatures() int
}

type classifierArtifact struct {
	Type         string         `json:"type"`
	NFeatures    int            `json:"n_features"`
	FeatureNames []string       `json:"feature_names"`
	Coef         []float64      `json:"coef"`
	Intercept    float64        `json:"intercept"`
	Classes      []int          `json:"classes"`
	Trees        []treeArtifact `json:"trees"`
	Nodes        []treeNode     `json:"nodes"`
}

type treeArtifact struct {
	Nodes []treeNode `json:"nodes"`
}

// treeNode follows the sklearn convention: x[feature] <= threshold goes left.
type treeNode struct {
	Feature   int       `json:"feature"`
	Threshold float64   `json:"threshold"`
	Left      int       `json:"left"`
	Right     int       `json:"right"`
	Leaf      bool      `json:"leaf"`
	Class     int       `json:"class"`
	Value     []float64 `json:"value"`
}

// LinearClassifier scores w·x + b and returns classes[1] when the score is positive.
// Logistic regression and linear SVM artifacts share this decision rule.
type LinearClassifier struct {
	Coef      []float64
	Intercept float64
	Classes   [2]int
}

// NumFeatures returns the number of coefficients.
func (c *LinearClassifier) NumFeatures() int {
	return len(c.Coef)
}

// Predict returns the class on the positive or negative side of the hyperplane.
func (c *LinearClassifier) Predict(x FeatureVector) (int, error) {
	if len(x) != len(c.Coef) {
		return 0, &ShapeError{Want: len(c.Coef), Got: len(x)}
	}
	score := c.Intercept
	for i, w := range c.Coef {
		score += w * x[i]
	}
	if score > 0 {
		return c.Classes[1], nil
	}
	return c.Classes[0], nil
}

// TreeEnsemble averages the leaf class probabilities of one or more decision trees, the
// way sklearn forests predict. A single tree is an ensemble of one. Leaves without a
// value vector count as probability 1 for their class.
type TreeEnsemble struct {
	Width   int
	Classes []int
	Trees   [][]treeNode
}

// NumFeatures returns the declared feature width.
func (e *TreeEnsemble) NumFeatures() int {
	return e.Width
}

// Predict returns the class with the highest mean probability; ties go to the lower class.
func (e *TreeEnsemble) Predict(x FeatureVector) (int, error) {
	if len(x) != e.Width {
		return 0, &ShapeError{Want: e.Width, Got: len(x)}
	}
	classes := e.Classes
	if len(classes) == 0 {
		classes = []int{0, 1}
	}
	proba := make([]float64, len(classes))
	for _, nodes := range e.Trees {
		leaf, err := walkTree(nodes, x)
		if err != nil {
			return 0, err
		}
		if err := addLeafProba(proba, classes, leaf); err != nil {
			return 0, err
		}
	}
	best := -1
	for i, p := range proba {
		if best < 0 || p > proba[best] || (p == proba[best] && classes[i] < classes[best]) {
			best = i
		}
	}
	return classes[best], nil
}

func addLeafProba(proba []float64, classes []int, leaf treeNode) error {
	if len(leaf.Value) > 0 {
		if len(leaf.Value) != len(classes) {
			return fmt.Errorf("leaf has %d class values for %d classes", len(leaf.Value), len(classes))
		}
		var sum float64
		for _, v := range leaf.Value {
			sum += v
		}
		if sum <= 0 {
			return fmt.Errorf("leaf class values sum to %v", sum)
		}
		for i, v := range leaf.Value {
			proba[i] += v / sum
		}
		return nil
	}
	for i, c := range classes {
		if c == leaf.Class {
			proba[i]++
			return nil
		}
	}
	return fmt.Errorf("leaf class %d is not one of %v", leaf.Class, classes)
}

func walkTree(nodes []treeNode, x FeatureVector) (treeNode, error) {
	idx := 0
	for steps := 0; steps <= len(nodes); steps++ {
		if idx < 0 || idx >= len(nodes) {
			return treeNode{}, fmt.Errorf("tree node %d out of range", idx)
		}
		n := nodes[idx]
		if n.Leaf {
			return n, nil
		}
		if x[n.Feature] <= n.Threshold {
			idx = n.Left
		} else {
			idx = n.Right
		}
	}
	return treeNode{}, fmt.Errorf("tree does not terminate")
}

// treeClasses returns the declared classes, or 0..k-1 for k-wide leaf values joined with
// every class named by a leaf, sorted.
func treeClasses(declared []int, trees [][]treeNode) []int {
	if len(declared) > 0 {
		return declared
	}
	seen := map[int]struct{}{0: {}, 1: {}}
	for _, nodes := range trees {
		for _, n := range nodes {
			if !n.Leaf {
				continue
			}
			if len(n.Value) > 0 {
				for c := range n.Value {
					seen[c] = struct{}{}
				}
				continue
			}
			seen[n.Class] = struct{}{}
		}
	}
	out := make([]int, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Ints(out)
	return out
}

// DecodeClassifier parses a JSON classifier artifact.
func DecodeClassifier(data []byte) (Classifier, error) {
	var art classifierArtifact
	if err := json.Unmarshal(data, &art); err != nil {
		return nil, fmt.Errorf("decode classifier: %w", err)
	}
	switch art.Type {
	case "logistic_regression", "linear_svm", "linear":
		if len(art.Coef) == 0 {
			return nil, fmt.Errorf("%s: coef is required", art.Type)
		}
		if art.NFeatures > 0 && art.NFeatures != len(art.Coef) {
			return nil, fmt.Errorf("%s: n_features %d but %d coefficients", art.Type, art.NFeatures, len(art.Coef))
		}
		classes := [2]int{0, 1}
		if len(art.Classes) == 2 {
			classes = [2]int{art.Classes[0], art.Classes[1]}
		}
		return &LinearClassifier{Coef: art.Coef, Intercept: art.Intercept, Classes: classes}, nil
	case "decision_tree", "random_forest":
		trees := make([][]treeNode, 0, len(art.Trees)+1)
		if len(art.Nodes) > 0 {
			trees = append(trees, art.Nodes)
		}
		for _, t := range art.Trees {
			trees = append(trees, t.Nodes)
		}
		if len(trees) == 0 {
			return nil, fmt.Errorf("%s: no trees", art.Type)
		}
		width := art.NFeatures
		if width <= 0 {
			width = len(art.FeatureNames)
		}
		if width <= 0 {
			return nil, fmt.Errorf("%s: n_features is required", art.Type)
		}
		classes := treeClasses(art.Classes, trees)
		for ti, nodes := range trees {
			for ni, n := range nodes {
				if !n.Leaf && (n.Feature < 0 || n.Feature >= width) {
					return nil, fmt.Errorf("%s: tree %d node %d uses feature %d of %d", art.Type, ti, ni, n.Feature, width)
				}
				if n.Leaf && len(n.Value) > 0 && len(n.Value) != len(classes) {
					return nil, fmt.Errorf("%s: tree %d node %d has %d class values for %d classes", art.Type, ti, ni, len(n.Value), len(classes))
				}
			}
		}
		return &TreeEnsemble{Width: width, Classes: classes, Trees: trees}, nil
	default:
		return nil, fmt.Errorf("unsupported classifier type %q", art.Type)
	}
}
