package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			-- Workflow documents: nodes are kept as one JSONB array addressed by node id
			CREATE TABLE workflows (
				id VARCHAR(255) PRIMARY KEY,
				name VARCHAR(255) NOT NULL DEFAULT '',
				nodes JSONB NOT NULL DEFAULT '[]',
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_workflows_updated_at ON workflows(updated_at);
		`,
		2: `
			-- Node id lookups for node-scoped patches
			CREATE INDEX idx_workflows_nodes ON workflows USING GIN (nodes jsonb_path_ops);
		`,
	}
}
