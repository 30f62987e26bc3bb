package graphio

import (
	"encoding/xml"
	"io"
	"strconv"

	"github.com/sanonone/kektorgraph/pkg/core"
	"github.com/sanonone/kektorgraph/pkg/errors"
	"github.com/sanonone/kektorgraph/pkg/graph"
)

const graphMLNamespace = "http://graphml.graphdrawing.org/xmlns"

// WeightKey is the GraphML edge attribute read as the explicit edge weight.
const WeightKey = "weight"

type gmlDocument struct {
	XMLName xml.Name `xml:"graphml"`
	Xmlns   string   `xml:"xmlns,attr,omitempty"`
	Keys    []gmlKey `xml:"key"`
	Graph   gmlGraph `xml:"graph"`
}

type gmlKey struct {
	ID      string  `xml:"id,attr"`
	For     string  `xml:"for,attr"`
	Name    string  `xml:"attr.name,attr"`
	Type    string  `xml:"attr.type,attr"`
	Default *string `xml:"default"`
}

type gmlGraph struct {
	ID          string    `xml:"id,attr,omitempty"`
	EdgeDefault string    `xml:"edgedefault,attr"`
	Nodes       []gmlNode `xml:"node"`
	Edges       []gmlEdge `xml:"edge"`
}

type gmlNode struct {
	ID   string    `xml:"id,attr"`
	Data []gmlData `xml:"data"`
}

type gmlEdge struct {
	ID     string    `xml:"id,attr,omitempty"`
	Source string    `xml:"source,attr"`
	Target string    `xml:"target,attr"`
	Data   []gmlData `xml:"data"`
}

type gmlData struct {
	Key   string `xml:"key,attr"`
	Value string `xml:",chardata"`
}

// gmlAttr is a resolved key: attribute name and kind.
type gmlAttr struct {
	name string
	kind core.Kind
	def  *string
}

type gmlKeys struct {
	node map[string]gmlAttr
	edge map[string]gmlAttr
	// key ids in document order, for defaults
	nodeOrder []string
	edgeOrder []string
}

func resolveKeys(keys []gmlKey, s *core.Session) gmlKeys {
	ks := gmlKeys{node: make(map[string]gmlAttr), edge: make(map[string]gmlAttr)}
	for _, k := range keys {
		kind, err := core.ParseKind(k.Type)
		if k.Type == "" || err != nil {
			if err != nil {
				s.Logger().Warnw("Unsupported GraphML attribute type, reading as string",
					"key", k.ID, "name", k.Name, "type", k.Type)
			}
			kind = core.KindString
		}
		name := k.Name
		if name == "" {
			name = k.ID
		}
		attr := gmlAttr{name: name, kind: kind, def: k.Default}
		switch k.For {
		case "node":
			ks.node[k.ID] = attr
			ks.nodeOrder = append(ks.nodeOrder, k.ID)
		case "edge":
			ks.edge[k.ID] = attr
			ks.edgeOrder = append(ks.edgeOrder, k.ID)
		case "all", "":
			ks.node[k.ID] = attr
			ks.edge[k.ID] = attr
			ks.nodeOrder = append(ks.nodeOrder, k.ID)
			ks.edgeOrder = append(ks.edgeOrder, k.ID)
		}
	}
	return ks
}

// fill puts the data of one element, then the defaults of keys it omits.
func fill(bag *core.Bag, data []gmlData, keys map[string]gmlAttr, order []string, s *core.Session) {
	present := make(map[string]struct{}, len(data))
	for _, d := range data {
		attr, ok := keys[d.Key]
		if !ok {
			s.Logger().Warnw("GraphML data references an undeclared key, reading as string", "key", d.Key)
			attr = gmlAttr{name: d.Key, kind: core.KindString}
		}
		bag.Put(attr.name, core.ParseValue(attr.kind, d.Value))
		present[d.Key] = struct{}{}
	}
	for _, id := range order {
		attr := keys[id]
		if _, ok := present[id]; ok || attr.def == nil {
			continue
		}
		bag.Put(attr.name, core.ParseValue(attr.kind, *attr.def))
	}
}

// ReadGraphML decodes a GraphML document into a new graph of s. Key
// attr.type values map to attribute kinds (int, long, float, double, string,
// boolean); the vertex and edge labels are the attributes named by the
// session label keys.
func ReadGraphML(r io.Reader, s *core.Session, opts ...ReadOption) (*graph.Graph, error) {
	o := applyOptions(opts)

	var doc gmlDocument
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, errors.Wrap(errors.Mark(err, errors.ErrIO), "decoding GraphML")
	}
	keys := resolveKeys(doc.Keys, s)
	g := graph.New(s)

	rawNodes := make([]string, len(doc.Graph.Nodes))
	for i, n := range doc.Graph.Nodes {
		rawNodes[i] = n.ID
	}
	vids := ids(rawNodes, "n", s.NextVertexID)
	for _, n := range doc.Graph.Nodes {
		v, err := g.AddVertexWithID(vids[n.ID], "")
		if err != nil {
			return nil, errors.Wrapf(errors.Mark(err, errors.ErrIO), "node %q", n.ID)
		}
		fill(v.Attrs, n.Data, keys.node, keys.nodeOrder, s)
	}

	if o.skipEdges {
		s.Logger().Debugw("Skipping GraphML edges", "edges", len(doc.Graph.Edges))
		return g, nil
	}
	if doc.Graph.EdgeDefault == "undirected" {
		s.Logger().Infow("Undirected GraphML input, edges keep their source to target orientation")
	}

	rawEdges := make([]string, len(doc.Graph.Edges))
	for i, e := range doc.Graph.Edges {
		rawEdges[i] = e.ID
		if e.ID == "" {
			rawEdges[i] = "\x00" + strconv.Itoa(i)
		}
	}
	eids := ids(rawEdges, "e", s.NextEdgeID)
	for i, e := range doc.Graph.Edges {
		src, ok := vids[e.Source]
		if !ok {
			return nil, errors.Wrapf(errors.ErrIO, "edge %q: unknown source node %q", e.ID, e.Source)
		}
		tgt, ok := vids[e.Target]
		if !ok {
			return nil, errors.Wrapf(errors.ErrIO, "edge %q: unknown target node %q", e.ID, e.Target)
		}
		edge, err := g.AddEdgeWithID(eids[rawEdges[i]], src, tgt, "")
		if err != nil {
			return nil, errors.Wrapf(errors.Mark(err, errors.ErrIO), "edge %q", e.ID)
		}
		fill(edge.Attrs, e.Data, keys.edge, keys.edgeOrder, s)
		if edge.Attrs.Has(WeightKey) {
			if w, err := edge.Attrs.Float(WeightKey); err == nil {
				edge.SetWeight(w)
			}
		}
	}

	s.Logger().Infow("GraphML read", "vertices", g.Order(), "edges", g.Size(), "keys", len(doc.Keys))
	return g, nil
}

// WriteGraphML encodes g as a GraphML document. Attribute kinds are the
// kinds registered in the session; explicit edge weights are written under
// WeightKey unless the edge already carries that attribute.
func WriteGraphML(w io.Writer, g *graph.Graph) error {
	reg := g.Session().Registry
	doc := gmlDocument{
		Xmlns: graphMLNamespace,
		Graph: gmlGraph{ID: "G", EdgeDefault: "directed"},
	}

	nodeKeys := make(map[string]string)
	edgeKeys := make(map[string]string)
	declare := func(table map[string]string, prefix, domain, name string, kind core.Kind) string {
		if id, ok := table[name]; ok {
			return id
		}
		id := prefix + strconv.Itoa(len(table))
		table[name] = id
		doc.Keys = append(doc.Keys, gmlKey{ID: id, For: domain, Name: name, Type: string(kind)})
		return id
	}
	kindOf := func(name string, v core.Value) core.Kind {
		if k, ok := reg.Kind(name); ok {
			return k
		}
		return v.Kind()
	}

	for _, v := range g.Vertices() {
		n := gmlNode{ID: "n" + strconv.FormatInt(v.ID, 10)}
		v.Attrs.Range(func(name string, val core.Value) bool {
			id := declare(nodeKeys, "v", "node", name, kindOf(name, val))
			n.Data = append(n.Data, gmlData{Key: id, Value: val.String()})
			return true
		})
		doc.Graph.Nodes = append(doc.Graph.Nodes, n)
	}
	for _, e := range g.Edges() {
		ge := gmlEdge{
			ID:     "e" + strconv.FormatInt(e.ID, 10),
			Source: "n" + strconv.FormatInt(e.Source, 10),
			Target: "n" + strconv.FormatInt(e.Target, 10),
		}
		e.Attrs.Range(func(name string, val core.Value) bool {
			id := declare(edgeKeys, "e", "edge", name, kindOf(name, val))
			ge.Data = append(ge.Data, gmlData{Key: id, Value: val.String()})
			return true
		})
		if e.HasExplicitWeight() && !e.Attrs.Has(WeightKey) {
			id := declare(edgeKeys, "e", "edge", WeightKey, core.KindDouble)
			ge.Data = append(ge.Data, gmlData{Key: id, Value: strconv.FormatFloat(e.Weight(), 'g', -1, 64)})
		}
		doc.Graph.Edges = append(doc.Graph.Edges, ge)
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return errors.Mark(err, errors.ErrIO)
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return errors.Wrap(errors.Mark(err, errors.ErrIO), "encoding GraphML")
	}
	if _, err := io.WriteString(w, "\n"); err != nil {
		return errors.Mark(err, errors.ErrIO)
	}
	return nil
}
