// Package hcl_adapter loads build profiles written in HCL.
//
// A profile has at most one compile block and one graph block:
//
//	compile {
//	  compiler     = "clang++"
//	  standard     = "c++20"
//	  include_dirs = ["${env.VULKAN_SDK}/include", "include"]
//	}
//
//	graph {
//	  context_type = "Frame*"
//	  prelude      = ["engine.h"]
//	}
//
// Expressions can read environment variables through env and call a small
// set of string and collection functions.
package hcl_adapter
