// Package domain defines the persistence models for users, offices, memos,
// forums, messages, notifications and the tracked presidency documents.
// These types are mapped with GORM and form the core data layer of the
// correspondence tracking service.
package domain

import (
	"time"

	"gorm.io/datatypes"
)

// User is an authenticated actor. Role and OfficeID drive every
// authorization decision, so they are always loaded from storage and never
// taken from request payloads.
type User struct {
	ID           string    `json:"id"         gorm:"type:char(36);primaryKey"`
	CI           string    `json:"ci"         gorm:"type:varchar(32);not null;uniqueIndex"`
	Username     string    `json:"username"   gorm:"type:varchar(64);not null;uniqueIndex"`
	PasswordHash string    `json:"-"          gorm:"type:varchar(255);not null"`
	FirstName    string    `json:"first_name" gorm:"type:varchar(128)"`
	LastName     string    `json:"last_name"  gorm:"type:varchar(128)"`
	Role         Role      `json:"role"       gorm:"type:varchar(16);not null;default:'USER';index"`
	OfficeID     string    `json:"office_id"  gorm:"type:varchar(16);not null;index"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	Office *Office `json:"office,omitempty" gorm:"foreignKey:OfficeID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// IsAdmin reports whether the user holds the ADMIN role.
func (u *User) IsAdmin() bool { return u != nil && u.Role == RoleAdmin }

// Office is an organizational unit. IDs are business identifiers ("100",
// "101", ...) rather than generated UUIDs.
type Office struct {
	ID    string `json:"id"    gorm:"type:varchar(16);primaryKey"`
	Name  string `json:"name"  gorm:"type:varchar(255);not null"`
	Abrev string `json:"abrev" gorm:"type:varchar(32)"`
}

// TableName returns the database table name for Office.
func (Office) TableName() string { return "offices" }

// Memo is an incoming official letter routed to one or more offices.
//
// Fields:
//   - Status: lifecycle state (PENDING, COMPLETED, ARCHIVED).
//   - Instruction / InstructionStatus: the directive attached by the
//     vice-presidency and whether it has been assigned.
//   - ReceptionImages / Attachments: URLs returned by the blob store.
//   - Offices: the routing set, replaced wholesale on reassignment.
type Memo struct {
	ID                string                      `json:"id"                 gorm:"type:char(36);primaryKey"`
	Name              string                      `json:"name"               gorm:"type:varchar(255);not null"`
	Applicant         string                      `json:"applicant"          gorm:"type:varchar(255)"`
	ReceptionMethod   string                      `json:"reception_method"   gorm:"type:varchar(64)"`
	ResponseRequire   bool                        `json:"response_require"`
	Urgency           Urgency                     `json:"urgency"            gorm:"type:varchar(16);not null;default:'MEDIUM'"`
	Observation       string                      `json:"observation"        gorm:"type:text"`
	ReceptionDate     *time.Time                  `json:"reception_date,omitempty"`
	ReceptionHour     string                      `json:"reception_hour"     gorm:"type:varchar(8)"`
	Status            MemoStatus                  `json:"status"             gorm:"type:varchar(16);not null;default:'PENDING';index"`
	Instruction       string                      `json:"instruction"        gorm:"type:text"`
	InstructionStatus InstructionStatus           `json:"instruction_status" gorm:"type:varchar(16);not null;default:'PENDING'"`
	ReceptionImages   datatypes.JSONSlice[string] `json:"reception_images"`
	Attachments       datatypes.JSONSlice[string] `json:"attachments"`
	CreatedBy         string                      `json:"created_by"         gorm:"type:char(36);index"`
	CreatedAt         time.Time                   `json:"created_at"         gorm:"index"`
	UpdatedAt         time.Time                   `json:"updated_at"`

	Offices []Office `json:"offices,omitempty" gorm:"many2many:memo_offices;joinForeignKey:MemoID;joinReferences:OfficeID"`
}

// TableName returns the database table name for Memo.
func (Memo) TableName() string { return "memos" }

// OfficeIDs returns the ids of the loaded Offices association.
func (m *Memo) OfficeIDs() []string {
	out := make([]string, 0, len(m.Offices))
	for _, o := range m.Offices {
		out = append(out, o.ID)
	}
	return out
}

// MemoOffice is the join row between a memo and an office. It backs the
// Memo.Offices association (see repo.AutoMigrate).
type MemoOffice struct {
	MemoID   string `json:"memo_id"   gorm:"type:char(36);primaryKey"`
	OfficeID string `json:"office_id" gorm:"type:varchar(16);primaryKey;index"`
}

// TableName returns the database table name for MemoOffice.
func (MemoOffice) TableName() string { return "memo_offices" }

// Forum is the single discussion thread attached to a memo. The unique
// index on MemoID makes "one forum per memo" a storage guarantee.
type Forum struct {
	ID          string      `json:"id"          gorm:"type:char(36);primaryKey"`
	Title       string      `json:"title"       gorm:"type:varchar(255);not null"`
	Description string      `json:"description" gorm:"type:text"`
	MemoID      string      `json:"memo_id"     gorm:"type:char(36);not null;uniqueIndex:ux_forums_memo"`
	Status      ForumStatus `json:"status"      gorm:"type:varchar(16);not null;default:'OPEN'"`
	CreatedBy   string      `json:"created_by"  gorm:"type:char(36);index"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`

	Memo *Memo `json:"-" gorm:"foreignKey:MemoID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Forum.
func (Forum) TableName() string { return "forums" }

// Message is a single post within a forum. Content may be empty only when
// a file is attached.
type Message struct {
	ID        string    `json:"id"                  gorm:"type:char(36);primaryKey"`
	ForumID   string    `json:"forum_id"            gorm:"type:char(36);not null;index:idx_forum_msgs,priority:1"`
	UserID    string    `json:"user_id"             gorm:"type:char(36);not null;index"`
	Content   string    `json:"content"             gorm:"type:text;not null;default:''"`
	FileURL   *string   `json:"file_url,omitempty"  gorm:"type:varchar(512)"`
	FileName  *string   `json:"file_name,omitempty" gorm:"type:varchar(255)"`
	CreatedAt time.Time `json:"created_at"          gorm:"index:idx_forum_msgs,priority:2"`
	UpdatedAt time.Time `json:"updated_at"`

	Forum Forum `json:"-" gorm:"foreignKey:ForumID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Message.
func (Message) TableName() string { return "messages" }

// Notification is an inbox row addressed to one user. Rows are soft
// deleted through the Deleted flag and never removed.
type Notification struct {
	ID        string    `json:"id"                 gorm:"type:char(36);primaryKey"`
	UserID    string    `json:"user_id"            gorm:"type:char(36);not null;index:idx_user_notifications,priority:1"`
	ForumID   *string   `json:"forum_id,omitempty" gorm:"type:char(36);index"`
	MemoID    *string   `json:"memo_id,omitempty"  gorm:"type:char(36);index"`
	Message   string    `json:"message"            gorm:"type:text;not null"`
	Read      bool      `json:"read"               gorm:"not null;default:false"`
	Deleted   bool      `json:"deleted"            gorm:"not null;default:false;index:idx_user_notifications,priority:2"`
	CreatedAt time.Time `json:"created_at"         gorm:"index"`
	UpdatedAt time.Time `json:"updated_at"`

	Forum *Forum `json:"forum,omitempty" gorm:"foreignKey:ForumID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL"`
	Memo  *Memo  `json:"memo,omitempty"  gorm:"foreignKey:MemoID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL"`
}

// TableName returns the database table name for Notification.
func (Notification) TableName() string { return "notifications" }

// PuntoCuenta is a briefing item presented to the presidency.
type PuntoCuenta struct {
	ID          string         `json:"id"          gorm:"type:char(36);primaryKey"`
	Numero      string         `json:"numero"      gorm:"type:varchar(64);not null;uniqueIndex"`
	Tipo        string         `json:"tipo"        gorm:"type:varchar(64);not null"`
	Fecha       time.Time      `json:"fecha"       gorm:"not null;index"`
	Presentante string         `json:"presentante" gorm:"type:varchar(255);not null"`
	Asunto      string         `json:"asunto"      gorm:"type:text;not null"`
	Decision    string         `json:"decision"    gorm:"type:text;not null"`
	Observacion string         `json:"observacion" gorm:"type:text;not null"`
	Status      DocumentStatus `json:"status"      gorm:"type:varchar(16);not null;default:'PENDIENTE'"`
	CreatedBy   string         `json:"created_by"  gorm:"type:char(36)"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// TableName returns the database table name for PuntoCuenta.
func (PuntoCuenta) TableName() string { return "puntos_cuenta" }

// OficioPresidencia is an outgoing letter issued by the presidency.
type OficioPresidencia struct {
	ID                 string         `json:"id"                           gorm:"type:char(36);primaryKey"`
	Numero             string         `json:"numero"                       gorm:"type:varchar(64);not null;uniqueIndex"`
	Institucion        string         `json:"institucion"                  gorm:"type:varchar(255);not null"`
	Destinatario       string         `json:"destinatario"                 gorm:"type:varchar(255);not null"`
	Asunto             string         `json:"asunto"                       gorm:"type:text;not null"`
	FechaElaboracion   time.Time      `json:"fecha_elaboracion"`
	FechaEntrega       *time.Time     `json:"fecha_entrega,omitempty"      gorm:"index"`
	RequiereRespuesta  bool           `json:"requiere_respuesta"`
	Status             DocumentStatus `json:"status"                       gorm:"type:varchar(16);not null;default:'PENDIENTE';index"`
	DocumentoEscaneado *string        `json:"documento_escaneado,omitempty" gorm:"type:varchar(512)"`
	CreatedBy          string         `json:"created_by"                   gorm:"type:char(36)"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
}

// TableName returns the database table name for OficioPresidencia.
func (OficioPresidencia) TableName() string { return "oficios_presidencia" }

// SentMemo records an outgoing memo together with the scanned reception
// proof.
type SentMemo struct {
	ID             string    `json:"id"              gorm:"type:char(36);primaryKey"`
	Title          string    `json:"title"           gorm:"type:varchar(255);not null"`
	RegisteredBy   string    `json:"registered_by"   gorm:"type:varchar(255);not null"`
	ReceptionImage string    `json:"reception_image" gorm:"type:varchar(512);not null"`
	CreatedBy      string    `json:"created_by"      gorm:"type:char(36)"`
	CreatedAt      time.Time `json:"created_at"      gorm:"index"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TableName returns the database table name for SentMemo.
func (SentMemo) TableName() string { return "sent_memos" }
