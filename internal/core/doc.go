// Package core provides the business logic for converting spreadsheets into
// CUE text.
//
// This package contains the conversion workflow independent of any UI or
// transport layer. It is used by the web server and the cueconv CLI.
//
// # Architecture
//
// The package is organized around several key concepts:
//
//   - Pipelines: Registered via the registry, each pipeline turns workbook
//     bytes into CUE text and names its default output file.
//   - Engines: A [NativeEngine] runs a pipeline in-process. Other backends
//     (the notebook runner) are plugged in with [Service.RegisterBackend].
//   - Packaging: [Package] normalizes the text and writes the one attachment.
//   - Service: Allocates a job, bounds concurrency, runs the engine and
//     records the outcome in the job history.
//
// # Pipeline Registry
//
// Pipelines are registered at init time using [Register]:
//
//	core.Register(core.Pipeline{
//	    Key:            "A",
//	    Label:          "Voetbal",
//	    DefaultOutName: "cue_voetbal.txt",
//	    Notebook:       "pipeline_a.ipynb",
//	    Build:          buildVoetbal,
//	})
//
// # Conversion Flow
//
//  1. Client calls [Service.Process] with a pipeline key and a file
//  2. Service waits for a free slot in the [Limiter]
//  3. The upload is saved under uploads/<job>/
//  4. The engine writes its output under outputs/<job>/
//  5. The job is recorded in the history store
//
// # Error Handling
//
// Engines only return the fatal errors declared in errors.go. They are mapped
// to user-friendly messages with codes using [MapError].
package core
