package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			-- Workflow documents are stored whole; the document is the unit of validation.
			CREATE TABLE workflow_documents (
				id VARCHAR(255) PRIMARY KEY,
				version VARCHAR(64) NOT NULL DEFAULT '',
				document JSONB NOT NULL,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);

			CREATE INDEX idx_workflow_documents_updated_at ON workflow_documents(updated_at);
		`,
		2: `
			-- Element lookups by the analytics consumer filter on contained element ids.
			CREATE INDEX idx_workflow_documents_elements ON workflow_documents USING GIN ((document -> 'elements'));
		`,
	}
}
