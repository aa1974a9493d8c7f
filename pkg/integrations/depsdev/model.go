package depsdev

// versionKey identifies a package version in the deps.dev API.
type versionKey struct {
	System  string `json:"system"`
	Name    string `json:"name"`
	Version string `json:"version"`
}

type graphNode struct {
	VersionKey versionKey `json:"versionKey"`
	Relation   string     `json:"relation"`
}

type graphEdge struct {
	FromNode    int    `json:"fromNode"`
	ToNode      int    `json:"toNode"`
	Requirement string `json:"requirement"`
}

type graphResponse struct {
	Nodes []graphNode `json:"nodes"`
	Edges []graphEdge `json:"edges"`
	Error string      `json:"error"`
}

type packageVersion struct {
	VersionKey versionKey `json:"versionKey"`
	IsDefault  bool       `json:"isDefault"`
}

type packageResponse struct {
	Versions []packageVersion `json:"versions"`
}
