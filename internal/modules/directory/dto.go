package directory

type CreateClientRequest struct {
	Name             string  `json:"name" binding:"required"`
	PrimaryContact   string  `json:"primaryContact" binding:"required"`
	SecondaryContact *string `json:"secondaryContact"`
	Address          *string `json:"address"`
	ClientTypeID     *string `json:"clientTypeId"`
}

type UpdateClientRequest struct {
	Name             *string `json:"name"`
	PrimaryContact   *string `json:"primaryContact"`
	SecondaryContact *string `json:"secondaryContact"`
	Address          *string `json:"address"`
	ClientTypeID     *string `json:"clientTypeId"`
	IsActive         *bool   `json:"isActive"`
}

type CreateClientTypeRequest struct {
	Name string `json:"name" binding:"required"`
}

type CreateEngineerRequest struct {
	Name         string `json:"name" binding:"required"`
	Email        string `json:"email" binding:"required,email"`
	MobileNumber string `json:"mobileNumber" binding:"required"`
	// Optional login password; when present a matching ENGINEER user
	// account is created alongside the directory entry.
	Password *string `json:"password" binding:"omitempty,min=8"`
}

type UpdateEngineerRequest struct {
	Name         *string `json:"name"`
	MobileNumber *string `json:"mobileNumber"`
	IsActive     *bool   `json:"isActive"`
}

type CreateMaterialRequest struct {
	Name         string `json:"name" binding:"required"`
	Unit         string `json:"unit" binding:"required"`
	ReorderLevel *int   `json:"reorderLevel" binding:"omitempty,gte=0"`
}

type UpdateMaterialRequest struct {
	Name         *string `json:"name"`
	Unit         *string `json:"unit"`
	ReorderLevel *int    `json:"reorderLevel" binding:"omitempty,gte=0"`
	IsActive     *bool   `json:"isActive"`
}

type ListQuery struct {
	Search     string `form:"search"`
	ActiveOnly bool   `form:"activeOnly"`
	Page       int    `form:"page"`
	Limit      int    `form:"limit"`
}
