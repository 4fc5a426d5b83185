// Copyright 2022-2026 The N42 Authors
// This file is part of the N42 library.
//
// The N42 library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The N42 library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the N42 library. If not, see <http://www.gnu.org/licenses/>.

// Package service implements the RPC surface of §6/§10.2: one method per
// language service plus one EVM service, each taking
// (before_revision, after_revision, diff_log_path) and returning artifact
// paths, a status code, and a message. Transport is JSON-over-HTTP rather
// than protobuf/gRPC, matching N42's own lighter-weight debug endpoints.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/n42blockchain/bytecrumb/internal/abstracts"
	"github.com/n42blockchain/bytecrumb/internal/ast"
	"github.com/n42blockchain/bytecrumb/internal/compiler"
	"github.com/n42blockchain/bytecrumb/internal/diffaggregate"
	"github.com/n42blockchain/bytecrumb/internal/diffmodel"
	"github.com/n42blockchain/bytecrumb/internal/evm/cfg"
	"github.com/n42blockchain/bytecrumb/internal/evm/interpreter"
	"github.com/n42blockchain/bytecrumb/internal/evm/ssg"
	"github.com/n42blockchain/bytecrumb/internal/evm/value"
	"github.com/n42blockchain/bytecrumb/internal/report"
	"github.com/n42blockchain/bytecrumb/internal/skills"
	"github.com/n42blockchain/bytecrumb/internal/source"
	"github.com/n42blockchain/bytecrumb/log"
	berrors "github.com/n42blockchain/bytecrumb/pkg/errors"
)

// Request is the common (before_revision, after_revision, diff_log_path)
// triple every analysis method accepts.
type Request struct {
	BeforeRevision string `json:"before_revision"`
	AfterRevision  string `json:"after_revision"`
	DiffLogPath    string `json:"diff_log_path"`
	ContractID     string `json:"contract_id"`
}

// Response carries the artifact paths plus a status code/message, per §6.
type Response struct {
	RequestID     string   `json:"request_id"`
	Status        int      `json:"status"`
	Message       string   `json:"message"`
	ArtifactPaths []string `json:"artifact_paths,omitempty"`
}

// revisionArtifacts is one revision's full analysis output, split by
// abstract-index category so each category can be diffed and written to
// its own §6 artifact (ast_abstract.json/cfg_abstract.json/
// ssg_abstract.json) rather than one merged file; SSGResults also carries
// tag_src, since diffaggregate.Diff's after-side tag-carry rule applies
// regardless of which registry produced a Result.
type revisionArtifacts struct {
	ASTResults map[string]abstracts.Result
	CFGResults map[string]abstracts.Result
	SSGResults map[string]abstracts.Result
	AST        *ast.Node
	CFG        *cfg.CFG
	SSG        *ssg.Graph
}

// EVMService analyzes Solidity EVM bytecode revisions. All EVM analysis is
// serialized behind mu (§5); value.Simplify itself is a pure function, and
// each analysis allocates its own value.Arena dedup tables.
type EVMService struct {
	mu       sync.Mutex
	Frontend compiler.Frontend
	Writer   *report.Writer

	ASTAbstractNames []string
	CFGAbstractNames []string
	SSGAbstractNames []string

	// Catalog is the optional skills_tag.yaml catalog (conf.Config.Tags);
	// nil disables the tag_src index entirely (skills.ComputeTagSrc
	// already treats a nil catalog as "no tags").
	Catalog *skills.Catalog

	// Timeout bounds each opcode-stepping interpreter run (§5's "global
	// wall-clock budget, configurable, default 20,000 s"), independent of
	// the RPC handler's own RequestTimeout.
	Timeout time.Duration
}

// NewEVMService wires a frontend, report writer, the three abstract-index
// name lists, and an optional tag catalog. timeout is the per-revision
// interpreter wall-clock budget (conf.Config.Timeout, converted to a
// time.Duration by the caller).
func NewEVMService(frontend compiler.Frontend, writer *report.Writer, astNames, cfgNames, ssgNames []string, catalog *skills.Catalog, timeout time.Duration) *EVMService {
	return &EVMService{
		Frontend:         frontend,
		Writer:           writer,
		ASTAbstractNames: astNames,
		CFGAbstractNames: cfgNames,
		SSGAbstractNames: ssgNames,
		Catalog:          catalog,
		Timeout:          timeout,
	}
}

// Analyze runs the before/after AST+CFG+interpreter+SSG+tag pipeline,
// writes every §6 artifact, and returns the diffed abstract-index summary,
// serialized by mu.
func (s *EVMService) Analyze(ctx context.Context, req Request) Response {
	reqID := uuid.NewString()
	log.Info("evm analyze start", "request_id", reqID, "contract", req.ContractID)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	before := s.analyzeRevision(ctx, req.ContractID, req.BeforeRevision, req.DiffLogPath, false)
	after := s.analyzeRevision(ctx, req.ContractID, req.AfterRevision, req.DiffLogPath, true)

	var paths []string
	if s.Writer != nil {
		paths = append(paths, s.writeRevisionArtifacts(req.ContractID, "before", before)...)
		paths = append(paths, s.writeRevisionArtifacts(req.ContractID, "after", after)...)
		paths = append(paths, s.writeAbstractSummary(req.ContractID, "ast_abstract.json", before.ASTResults, after.ASTResults)...)
		paths = append(paths, s.writeAbstractSummary(req.ContractID, "cfg_abstract.json", before.CFGResults, after.CFGResults)...)
		paths = append(paths, s.writeAbstractSummary(req.ContractID, "ssg_abstract.json", before.SSGResults, after.SSGResults)...)
	}

	log.Info("evm analyze done", "request_id", reqID, "artifacts", len(paths))
	return Response{RequestID: reqID, Status: http.StatusOK, Message: "ok", ArtifactPaths: paths}
}

// writeAbstractSummary diffs one category's before/after Results and
// writes the merged summary to dest_path/contractID/diff/name.
func (s *EVMService) writeAbstractSummary(contractID, name string, before, after map[string]abstracts.Result) []string {
	diffed := diffaggregate.Diff(before, after)
	summary := report.BuildAbstractSummary(intsOf(before), intsOf(after), diffed)
	if err := s.Writer.WriteJSON(contractID, "diff", name, summary); err != nil {
		log.Error("write abstract summary failed", "contract", contractID, "name", name, "err", err)
		return nil
	}
	return []string{name}
}

// writeRevisionArtifacts serializes one revision's raw (non-diffed) AST,
// CFG, and SSG artifacts plus their edge lists (§6): ast.json/ast_edgelist,
// cfg.json/cfg_edgelist, ssg.json/ssg_edgelist.
func (s *EVMService) writeRevisionArtifacts(contractID, revision string, a revisionArtifacts) []string {
	var paths []string
	write := func(name string, v interface{}) {
		if err := s.Writer.WriteJSON(contractID, revision, name, v); err != nil {
			log.Error("write artifact failed", "contract", contractID, "revision", revision, "name", name, "err", err)
			return
		}
		paths = append(paths, name)
	}

	if a.AST != nil {
		write("ast.json", a.AST)
		write("ast_edgelist", astEdgeList(a.AST))
	}
	if a.CFG != nil {
		write("cfg.json", a.CFG)
		write("cfg_edgelist", cfgEdgeList(a.CFG))
	}
	if a.SSG != nil {
		write("ssg.json", a.SSG)
		write("ssg_edgelist", ssgEdgeList(a.SSG))
	}
	return paths
}

// astEdgeList flattens a contract's call graph (caller function -> callee
// function, both indexed by their position in ast.CallGraph's sorted
// output) into the report package's generic Src/Dst/Kind shape. A callee
// outside this contract (no matching FunctionDef) has no node of its own
// and is skipped — the edge list only covers intra-contract calls.
func astEdgeList(root *ast.Node) []report.EdgeListEntry {
	defs := ast.CallGraph(root)
	index := make(map[string]int, len(defs))
	for i, fd := range defs {
		index[fd.Name] = i
	}
	var entries []report.EdgeListEntry
	for i, fd := range defs {
		for _, call := range fd.Calls {
			callee, ok := index[call.Member]
			if !ok {
				continue
			}
			entries = append(entries, report.EdgeListEntry{Src: i, Dst: callee, Kind: "call"})
		}
	}
	return entries
}

func cfgEdgeList(c *cfg.CFG) []report.EdgeListEntry {
	var entries []report.EdgeListEntry
	for from, tos := range c.Edges {
		for _, to := range tos {
			entries = append(entries, report.EdgeListEntry{Src: from, Dst: to, Kind: "cfg"})
		}
	}
	return entries
}

func ssgEdgeList(g *ssg.Graph) []report.EdgeListEntry {
	var entries []report.EdgeListEntry
	for _, fg := range g.Functions {
		for _, e := range fg.Edges() {
			entries = append(entries, report.EdgeListEntry{Src: e.Src, Dst: e.Dst, Kind: string(e.Kind)})
		}
	}
	return entries
}

func intsOf(m map[string]abstracts.Result) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		if v.Err == nil && v.Tags == nil {
			out[k] = v.Int
		}
	}
	return out
}

// analyzeRevision compiles one revision, runs the CFG builder, the
// symbolic interpreter (populating the SSG), the AST-rooted indices, and
// (when a tag catalog is loaded) the tag_src index, keeping each
// category's Result map separate so the caller can diff and write
// ast_abstract.json/cfg_abstract.json/ssg_abstract.json independently.
func (s *EVMService) analyzeRevision(ctx context.Context, contractID, revisionPath, diffLogPath string, isAfter bool) revisionArtifacts {
	art, err := s.Frontend.Load(revisionPath)
	if err != nil {
		// Compilation failure is non-fatal (§7): proceed with empty metrics.
		return revisionArtifacts{
			ASTResults: emptyResults(s.ASTAbstractNames),
			CFGResults: emptyResults(s.CFGAbstractNames),
			SSGResults: emptyResults(s.SSGAbstractNames),
		}
	}

	file, contract := splitContractID(contractID)

	bc, err := art.DeployedBytecodeFor(contractID)
	if err != nil {
		return revisionArtifacts{
			ASTResults: emptyResults(s.ASTAbstractNames),
			CFGResults: emptyResults(s.CFGAbstractNames),
			SSGResults: emptyResults(s.SSGAbstractNames),
		}
	}

	var diffLines []int
	if diffLogPath != "" {
		var d *diffmodel.Diff
		if isAfter {
			d, err = diffmodel.After(diffLogPath)
		} else {
			d, err = diffmodel.Before(diffLogPath)
		}
		if err == nil && d != nil {
			diffLines = d.Lines
		}
	}

	c := cfg.Build(bc.Opcodes, diffLines, nil)
	arena := value.NewArena()
	graph := ssg.New()
	m := interpreter.NewMachine(c, arena, graph)
	m.Run(ctx)

	cfgResults := abstracts.ComputeCFG(ctx, s.CFGAbstractNames, abstracts.CFGContext{Graphs: []*cfg.CFG{c}})
	ssgResults := abstracts.ComputeSSG(ctx, s.SSGAbstractNames, abstracts.SSGContext{Graph: graph})

	var root *ast.Node
	if sa, ok := art.Sources[file]; ok {
		var raw interface{}
		if sa.AST != nil {
			_ = json.Unmarshal(sa.AST, &raw)
		} else if sa.LegacyAST != nil {
			_ = json.Unmarshal(sa.LegacyAST, &raw)
		}
		root = ast.DecodeNode(raw)
	}
	astResults := abstracts.ComputeAST(ctx, s.ASTAbstractNames, abstracts.ASTContext{Root: root})

	// tag_src is meaningful only on the after side: diffaggregate.Diff
	// carries a tag-valued index from the after Result regardless of what
	// (if anything) the before side records for the same name. It is
	// filed alongside the SSG indices since both describe the after
	// revision's behavior/change-surface rather than its raw syntax.
	if isAfter && s.Catalog != nil && root != nil && diffLogPath != "" {
		afterDiff, diffErr := diffmodel.After(diffLogPath)
		if diffErr == nil {
			defs := ast.CallGraph(root)
			var src *source.Source
			if data, readErr := os.ReadFile(revisionPath); readErr == nil {
				src = source.New(revisionPath, data, 0)
			}
			tags := skills.ComputeTagSrc(s.Catalog, src, file, contract, defs, afterDiff)
			ssgResults["tag_src"] = abstracts.Result{Tags: tags}
		}
	}

	return revisionArtifacts{ASTResults: astResults, CFGResults: cfgResults, SSGResults: ssgResults, AST: root, CFG: c, SSG: graph}
}

// splitContractID splits the §6 "file:ContractName" convention into its
// two parts; a bare name with no colon is returned as (name, name).
func splitContractID(contractID string) (file, contract string) {
	if i := strings.LastIndex(contractID, ":"); i >= 0 {
		return contractID[:i], contractID[i+1:]
	}
	return contractID, contractID
}

func emptyResults(names []string) map[string]abstracts.Result {
	out := make(map[string]abstracts.Result, len(names))
	for _, n := range names {
		out[n] = Result0()
	}
	return out
}

func Result0() abstracts.Result { return abstracts.Result{Int: 0} }

// SourceService analyzes a standalone compiler AST dump for a non-EVM
// revision pair (§6.3): unlike EVMService it is not mutex-serialized since
// internal/ast has no shared mutable dedup state (§5).
type SourceService struct {
	Writer *report.Writer
	Names  []string
}

// NewSourceService wires a report writer and the ast_abstracts name list.
func NewSourceService(writer *report.Writer, names []string) *SourceService {
	return &SourceService{Writer: writer, Names: names}
}

// Analyze decodes req.BeforeRevision/AfterRevision as paths to raw AST JSON
// documents (§6's sources[path].ast shape, read standalone rather than via
// a compiler.Frontend), computes the ast_abstracts indices over each side,
// diffs them, and writes ast_abstract.json.
func (s *SourceService) Analyze(ctx context.Context, req Request) Response {
	reqID := uuid.NewString()
	log.Info("source analyze start", "request_id", reqID, "contract", req.ContractID)

	before := s.analyzeRevision(ctx, req.BeforeRevision)
	after := s.analyzeRevision(ctx, req.AfterRevision)

	diffed := diffaggregate.Diff(before, after)
	summary := report.BuildAbstractSummary(intsOf(before), intsOf(after), diffed)

	var paths []string
	if s.Writer != nil {
		name := "ast_abstract.json"
		if err := s.Writer.WriteJSON(req.ContractID, "diff", name, summary); err == nil {
			paths = append(paths, name)
		}
	}

	log.Info("source analyze done", "request_id", reqID)
	return Response{RequestID: reqID, Status: http.StatusOK, Message: "ok", ArtifactPaths: paths}
}

func (s *SourceService) analyzeRevision(ctx context.Context, path string) map[string]abstracts.Result {
	if path == "" {
		return emptyResults(s.Names)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return emptyResults(s.Names)
	}
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return emptyResults(s.Names)
	}
	root := ast.DecodeNode(raw)
	return abstracts.ComputeAST(ctx, s.Names, abstracts.ASTContext{Root: root})
}

// HTTPHandler returns a net/http handler for svc.Analyze, decoding Request
// from the JSON body and replying with the JSON-encoded Response, a 500 with
// a descriptive message on any uncaught error per §7's RPC boundary policy.
func HTTPHandler(analyze func(context.Context, Request) Response) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Error("rpc handler panic", "recovered", rec)
				http.Error(w, fmt.Sprintf("internal error: %v", rec), http.StatusInternalServerError)
			}
		}()

		var req Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, berrors.Wrap(berrors.ErrInvalidConfig, err.Error()).Error(), http.StatusBadRequest)
			return
		}

		resp := analyze(r.Context(), req)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(resp.Status)
		_ = json.NewEncoder(w).Encode(resp)
	}
}
