package export

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"

	"github.com/siherrmann/kgraph/core/graph"
	"github.com/siherrmann/kgraph/helper"
)

const graphMLNamespace = "http://graphml.graphdrawing.org/xmlns"

// GraphMLDocument is the root element of a GraphML file.
type GraphMLDocument struct {
	XMLName xml.Name     `xml:"graphml"`
	XMLNS   string       `xml:"xmlns,attr"`
	Keys    []GraphMLKey `xml:"key"`
	Graph   GraphMLGraph `xml:"graph"`
}

// GraphMLKey declares a data attribute of nodes or edges.
type GraphMLKey struct {
	ID       string `xml:"id,attr"`
	For      string `xml:"for,attr"`
	AttrName string `xml:"attr.name,attr"`
	AttrType string `xml:"attr.type,attr"`
}

// GraphMLGraph holds nodes and edges.
type GraphMLGraph struct {
	ID          string        `xml:"id,attr"`
	EdgeDefault string        `xml:"edgedefault,attr"`
	Nodes       []GraphMLNode `xml:"node"`
	Edges       []GraphMLEdge `xml:"edge"`
}

// GraphMLNode is a canonical entity.
type GraphMLNode struct {
	ID   string        `xml:"id,attr"`
	Data []GraphMLData `xml:"data"`
}

// GraphMLEdge is a deduplicated relation between two canonical entities.
type GraphMLEdge struct {
	ID     string        `xml:"id,attr"`
	Source string        `xml:"source,attr"`
	Target string        `xml:"target,attr"`
	Data   []GraphMLData `xml:"data"`
}

// GraphMLData is a single data value of a node or edge.
type GraphMLData struct {
	Key   string `xml:"key,attr"`
	Value string `xml:",chardata"`
}

var graphMLKeys = []GraphMLKey{
	{ID: "d0", For: "node", AttrName: "type", AttrType: "string"},
	{ID: "d1", For: "node", AttrName: "aggregated_attributes", AttrType: "string"},
	{ID: "d2", For: "edge", AttrName: "relation", AttrType: "string"},
	{ID: "d3", For: "edge", AttrName: "count", AttrType: "int"},
	{ID: "d4", For: "edge", AttrName: "chunk_ids", AttrType: "string"},
}

// GraphMLFromGraph converts the knowledge graph into a GraphML document.
// Node ids are the canonical names, edges are written head to tail.
func GraphMLFromGraph(g *graph.KnowledgeGraph) (*GraphMLDocument, error) {
	if g == nil {
		g = graph.NewKnowledgeGraph()
	}
	nodes := g.Nodes()
	edges := g.Edges()

	doc := &GraphMLDocument{
		XMLNS: graphMLNamespace,
		Keys:  graphMLKeys,
		Graph: GraphMLGraph{
			ID:          "G",
			EdgeDefault: "directed",
			Nodes:       make([]GraphMLNode, 0, len(nodes)),
			Edges:       make([]GraphMLEdge, 0, len(edges)),
		},
	}

	for _, node := range nodes {
		gmlNode := GraphMLNode{
			ID:   node.Name,
			Data: []GraphMLData{{Key: "d0", Value: node.Type}},
		}
		if len(node.Attributes) > 0 {
			attributes, err := json.Marshal(node.Attributes)
			if err != nil {
				return nil, helper.NewError("graphml node "+node.Name, err)
			}
			gmlNode.Data = append(gmlNode.Data, GraphMLData{Key: "d1", Value: string(attributes)})
		}
		doc.Graph.Nodes = append(doc.Graph.Nodes, gmlNode)
	}

	for i, edge := range edges {
		chunkIDs, err := json.Marshal(edge.ChunkIDs)
		if err != nil {
			return nil, helper.NewError("graphml edge", err)
		}
		doc.Graph.Edges = append(doc.Graph.Edges, GraphMLEdge{
			ID:     fmt.Sprintf("e%d", i),
			Source: edge.Head,
			Target: edge.Tail,
			Data: []GraphMLData{
				{Key: "d2", Value: edge.Relation},
				{Key: "d3", Value: strconv.Itoa(edge.Count)},
				{Key: "d4", Value: string(chunkIDs)},
			},
		})
	}

	return doc, nil
}

// WriteGraphML writes the knowledge graph as GraphML.
func WriteGraphML(w io.Writer, g *graph.KnowledgeGraph) error {
	doc, err := GraphMLFromGraph(g)
	if err != nil {
		return err
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return helper.NewError("write graphml", err)
	}
	encoder := xml.NewEncoder(w)
	encoder.Indent("", "  ")
	if err := encoder.Encode(doc); err != nil {
		return helper.NewError("write graphml", err)
	}
	return nil
}
