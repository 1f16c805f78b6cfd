package hcl_adapter

// fileRoot is the top level of a profile file. Anything else at the top
// level is a decode error.
type fileRoot struct {
	Compile *compileBlock `hcl:"compile,block"`
	Graph   *graphBlock   `hcl:"graph,block"`
}

type compileBlock struct {
	Compiler      *string  `hcl:"compiler,optional"`
	Standard      string   `hcl:"standard,optional"`
	Optimization  string   `hcl:"optimization,optional"`
	IncludeDirs   []string `hcl:"include_dirs,optional"`
	IncludeFiles  []string `hcl:"include_files,optional"`
	Defines       []string `hcl:"defines,optional"`
	LinkDirs      []string `hcl:"link_dirs,optional"`
	LinkLibs      []string `hcl:"link_libs,optional"`
	ExtraFlags    []string `hcl:"extra_flags,optional"`
	ExtraFlagLine string   `hcl:"extra_flag_line,optional"`
	OutputDir     *string  `hcl:"output_dir,optional"`
	OutputName    string   `hcl:"output_name,optional"`
}

type graphBlock struct {
	ContextType string   `hcl:"context_type,optional"`
	ContextName string   `hcl:"context_name,optional"`
	Prelude     []string `hcl:"prelude,optional"`
}
