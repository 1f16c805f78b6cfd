/*
Package parser extracts pass descriptors from render graph source.

A graph source file is ordinary C++ that contains one or more pass blocks:

	PASS_BEGIN(DRAW_RECT)
	READ(gpu_vector<res::vertex>& vertices, gpu_vector<uint32_t>& indices)
	FIXED
	INPUT(graphicsPipelineCreateInfo& pipeline, window& wind)
	{
		setPipeline(pipeline);
		drawIndexed(indices.size());
	}
	PASS_END

The READ, WRITE, READ_WRITE and INPUT lists and the FIXED marker are
optional and may appear in any order before the body. Everything outside of
pass blocks is left alone; the preprocessor copies it into the generated
translation unit.

Scanning is token based (see package lexer), so markers and braces inside
comments, string literals and char literals are never mistaken for syntax.
*/
package parser
