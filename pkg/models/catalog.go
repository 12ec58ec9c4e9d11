package models

// Integration is a third-party application available in the catalog.
type Integration struct {
	ID         string      `json:"id"`
	Key        string      `json:"key"`
	Name       string      `json:"name"`
	LogoURI    string      `json:"logoUri,omitempty"`
	Connection *Connection `json:"connection,omitempty"`
}

// Connection is an authenticated instance of an integration for the current customer.
type Connection struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Integration *Integration `json:"integration,omitempty"`
}

// IntegrationKey returns the key of the connected integration, or "".
func (c *Connection) IntegrationKey() string {
	if c == nil || c.Integration == nil {
		return ""
	}

	return c.Integration.Key
}

// Label is the human name of the connection, falling back to the integration key.
func (c *Connection) Label() string {
	if c == nil {
		return ""
	}

	if c.Name != "" {
		return c.Name
	}

	return c.IntegrationKey()
}

// Action is a catalog-defined operation of an integration.
type Action struct {
	ID                  string         `json:"id"`
	Key                 string         `json:"key"`
	Name                string         `json:"name"`
	IntegrationKey      string         `json:"integrationKey,omitempty"`
	InputSchema         Schema         `json:"inputSchema,omitempty"`
	DefaultOutputSchema Schema         `json:"defaultOutputSchema,omitempty"`
	Config              map[string]any `json:"config,omitempty"`
}

// DisplayName returns the action name, falling back to its key.
func (a *Action) DisplayName() string {
	if a.Name != "" {
		return a.Name
	}

	return a.Key
}

// CollectionKey returns config.dataSource.collectionKey when the action reads a data collection.
func (a *Action) CollectionKey() string {
	dataSource, ok := a.Config["dataSource"].(map[string]any)
	if !ok {
		return ""
	}

	key, _ := dataSource["collectionKey"].(string)

	return key
}

// FieldMapping is a customer-definable named transform of an integration.
type FieldMapping struct {
	ID   string `json:"id"`
	Key  string `json:"key"`
	Name string `json:"name"`
}

// DisplayName returns the field mapping name, falling back to its key.
func (f FieldMapping) DisplayName() string {
	if f.Name != "" {
		return f.Name
	}

	return f.Key
}
