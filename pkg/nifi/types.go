package nifi

// Revision of a NiFi component, required for any mutation
type Revision struct {
	ClientID string `json:"clientId,omitempty"`
	Version  int64  `json:"version"`
}

// Position of a component on the canvas
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// VersionControl links a process group to a flow version in a registry
type VersionControl struct {
	GroupID    string `json:"groupId,omitempty"`
	RegistryID string `json:"registryId"`
	BucketID   string `json:"bucketId"`
	FlowID     string `json:"flowId"`
	Version    int64  `json:"version"`
}

// RegistryClient is a registry known to NiFi
type RegistryClient struct {
	ID   string
	Name string
	URI  string
}

// ProcessGroup is a process group as seen from its parent
type ProcessGroup struct {
	ID             string
	Name           string
	ParentID       string
	Revision       Revision
	VersionControl *VersionControl
}

// wire formats

type registryClientEntity struct {
	ID        string `json:"id"`
	Component struct {
		ID   string `json:"id"`
		Name string `json:"name"`
		URI  string `json:"uri"`
	} `json:"component"`
}

type registryClientsEntity struct {
	Registries []registryClientEntity `json:"registries"`
}

type processGroupComponent struct {
	ID                        string          `json:"id,omitempty"`
	Name                      string          `json:"name,omitempty"`
	ParentGroupID             string          `json:"parentGroupId,omitempty"`
	Position                  *Position       `json:"position,omitempty"`
	VersionControlInformation *VersionControl `json:"versionControlInformation,omitempty"`
}

type processGroupEntity struct {
	ID        string                `json:"id,omitempty"`
	Revision  Revision              `json:"revision"`
	Component processGroupComponent `json:"component"`
}

func (e processGroupEntity) toProcessGroup() ProcessGroup {
	id := e.ID
	if id == "" {
		id = e.Component.ID
	}
	return ProcessGroup{
		ID:             id,
		Name:           e.Component.Name,
		ParentID:       e.Component.ParentGroupID,
		Revision:       e.Revision,
		VersionControl: e.Component.VersionControlInformation,
	}
}

type processGroupsEntity struct {
	ProcessGroups []processGroupEntity `json:"processGroups"`
}

type processGroupFlowEntity struct {
	ProcessGroupFlow struct {
		ID string `json:"id"`
	} `json:"processGroupFlow"`
}

type versionControlInformationEntity struct {
	ProcessGroupRevision      Revision       `json:"processGroupRevision"`
	VersionControlInformation VersionControl `json:"versionControlInformation"`
}

type updateRequestEntity struct {
	Request struct {
		RequestID        string `json:"requestId"`
		Complete         bool   `json:"complete"`
		FailureReason    string `json:"failureReason"`
		PercentCompleted int    `json:"percentCompleted"`
		State            string `json:"state"`
	} `json:"request"`
}
