/*
Package preprocess turns a parsed graph source into one C++ translation unit
that a native compiler can build into a shared module.

Pass blocks are cut out of the source and replaced by functions. A dynamic
pass becomes rg_pass_main_<NAME>; a FIXED pass becomes rg_pass_bake_<NAME>.
Both take the context handle first, followed by the pass's declared
parameters in read, write, read-write, input order. Everything outside of the
pass blocks is copied through unchanged, with #line directives so compiler
diagnostics point back to the graph source.

Parameters are fed from per-pass binding tables filled by the host through
rg_bind_param. The exported entry points are:

	int      rg_bind_param(uint32_t pass, uint32_t param, void* ptr);
	void     rg_next_frame(void* ctx);
	void     rg_bake(void* ctx);
	uint32_t rg_pass_count(void);

rg_next_frame calls every main variant whose bindings are complete, in source
order. rg_bake calls every bake variant once.
*/
package preprocess
