package fixtures

import (
	"fmt"
	"time"

	"careerflow/domain/config"
	"careerflow/domain/core/aggregates"
	"careerflow/domain/core/entities"
	"careerflow/domain/core/valueobjects"
	"careerflow/domain/workspace"
)

// FixedTime is the clock used by built trees
var FixedTime = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

// WorkspaceBuilder builds workspaces with companies, roles and tailored
// versions addressed by label path ("Acme", "Acme/SWE").
type WorkspaceBuilder struct {
	tree *aggregates.Tree
	ids  map[string]valueobjects.NodeID
	err  error
}

// NewWorkspaceBuilder starts from the default configuration
func NewWorkspaceBuilder() *WorkspaceBuilder {
	return NewWorkspaceBuilderWithConfig(config.DefaultDomainConfig())
}

// NewWorkspaceBuilderWithConfig starts from cfg
func NewWorkspaceBuilderWithConfig(cfg *config.DomainConfig) *WorkspaceBuilder {
	tree := aggregates.NewTree(cfg)
	tree.SetClock(func() time.Time { return FixedTime })
	return &WorkspaceBuilder{
		tree: tree,
		ids:  make(map[string]valueobjects.NodeID),
	}
}

// WithCV sets the base node details
func (b *WorkspaceBuilder) WithCV(d entities.BaseDetails) *WorkspaceBuilder {
	if b.err != nil {
		return b
	}
	_, b.err = b.tree.UpdateDetails(valueobjects.RootID, d)
	return b
}

// WithCompany adds a company; backendID 0 leaves it unsynced
func (b *WorkspaceBuilder) WithCompany(name string, backendID int64) *WorkspaceBuilder {
	if b.err != nil {
		return b
	}
	n, err := b.tree.AddChild(valueobjects.RootID, name,
		aggregates.WithDetails(entities.CompanyDetails{}),
		aggregates.WithBackendID(backendID))
	if err != nil {
		b.err = fmt.Errorf("company %q: %w", name, err)
		return b
	}
	b.ids[name] = n.ID()
	return b
}

// WithRole adds a role under an already added company
func (b *WorkspaceBuilder) WithRole(company, title string, backendID int64, details entities.RoleDetails) *WorkspaceBuilder {
	if b.err != nil {
		return b
	}
	parent, ok := b.ids[company]
	if !ok {
		b.err = fmt.Errorf("role %q: unknown company %q", title, company)
		return b
	}
	n, err := b.tree.AddChild(parent, title,
		aggregates.WithDetails(details),
		aggregates.WithBackendID(backendID))
	if err != nil {
		b.err = fmt.Errorf("role %q: %w", title, err)
		return b
	}
	b.ids[company+"/"+title] = n.ID()
	return b
}

// WithTailored appends a tailored version to a role given as "Company/Title"
func (b *WorkspaceBuilder) WithTailored(rolePath string, backendID int64, content string) *WorkspaceBuilder {
	if b.err != nil {
		return b
	}
	parent, ok := b.ids[rolePath]
	if !ok {
		b.err = fmt.Errorf("tailored: unknown role %q", rolePath)
		return b
	}
	n, err := b.tree.AddTailoredVersion(parent,
		entities.TailoredDetails{Content: content, CreatedAt: FixedTime},
		aggregates.WithBackendID(backendID))
	if err != nil {
		b.err = fmt.Errorf("tailored under %q: %w", rolePath, err)
		return b
	}
	b.ids[fmt.Sprintf("%s/v%d", rolePath, n.Version())] = n.ID()
	return b
}

// ID returns the node id registered under path
func (b *WorkspaceBuilder) ID(path string) valueobjects.NodeID {
	return b.ids[path]
}

// Build returns the state with committed events and an empty selection
func (b *WorkspaceBuilder) Build() (workspace.State, error) {
	if b.err != nil {
		return workspace.State{}, b.err
	}
	b.tree.MarkEventsAsCommitted()
	return workspace.State{Tree: b.tree.Clone()}, nil
}

// MustBuild panics on a builder error
func (b *WorkspaceBuilder) MustBuild() workspace.State {
	s, err := b.Build()
	if err != nil {
		panic(err)
	}
	return s
}
