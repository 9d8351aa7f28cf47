package agent

import "time"

// ProcGetPublicAgent identifica la operación cacheada de vista pública
const ProcGetPublicAgent = "agent.getPublicAgent"

// PublicAgentTTL tiempo de vida de la vista pública en caché
const PublicAgentTTL = 60 * time.Second

// PublicAgentTag tag de invalidación de la vista pública de un agente.
// Va por handle porque la vista pública se consulta y cachea por handle.
func PublicAgentTag(handle string) string {
	return "public-agent:" + handle
}
