package project

// CRUDStrings are the user-facing labels and messages of one resource.
type CRUDStrings struct {
	TitleCreate       string `json:"title_create"`
	TitleDisplay      string `json:"title_display"`
	TitleList         string `json:"title_list"`
	TitleUpdate       string `json:"title_update"`
	TitleSearch       string `json:"title_search"`
	TitleUpload       string `json:"title_upload,omitempty"`
	TitleReport       string `json:"title_report,omitempty"`
	SubtitleCreate    string `json:"subtitle_create"`
	SubtitleList      string `json:"subtitle_list"`
	LabelListButton   string `json:"label_list_button"`
	LabelCreateButton string `json:"label_create_button"`
	LabelDeleteButton string `json:"label_delete_button,omitempty"`
	MsgRecordCreated  string `json:"msg_record_created"`
	MsgRecordModified string `json:"msg_record_modified"`
	MsgRecordDeleted  string `json:"msg_record_deleted"`
	MsgListEmpty      string `json:"msg_list_empty"`
}

// Resource names.
const (
	ResourceProject             = "project"
	ResourceProjectOrganisation = "project_organisation"
	ResourceActivityType        = "activity_type"
	ResourceActivity            = "activity"
	ResourceBeneficiaryType     = "beneficiary_type"
	ResourceBeneficiary         = "beneficiary"
	ResourceMilestone           = "milestone"
	ResourceTask                = "task"
	ResourceTime                = "time"
	ResourceComment             = "comment"
)

var crudStrings = map[string]CRUDStrings{
	ResourceProject: {
		TitleCreate:       "Add Project",
		TitleDisplay:      "Project Details",
		TitleList:         "List Projects",
		TitleUpdate:       "Edit Project",
		TitleSearch:       "Search Projects",
		TitleUpload:       "Import Project List",
		SubtitleCreate:    "Add New Project",
		SubtitleList:      "Projects",
		LabelListButton:   "List Projects",
		LabelCreateButton: "Add Project",
		LabelDeleteButton: "Delete Project",
		MsgRecordCreated:  "Project added",
		MsgRecordModified: "Project updated",
		MsgRecordDeleted:  "Project deleted",
		MsgListEmpty:      "No Projects currently registered",
	},
	ResourceProjectOrganisation: {
		TitleCreate:       "Add Organization to Project",
		TitleDisplay:      "Project Organization Details",
		TitleList:         "List Project Organizations",
		TitleUpdate:       "Edit Project Organization",
		TitleSearch:       "Search Project Organizations",
		TitleUpload:       "Import Project Organizations",
		SubtitleCreate:    "Add Organization to Project",
		SubtitleList:      "Project Organizations",
		LabelListButton:   "List Project Organizations",
		LabelCreateButton: "Add Organization to Project",
		LabelDeleteButton: "Remove Organization from Project",
		MsgRecordCreated:  "Organization added to Project",
		MsgRecordModified: "Project Organization updated",
		MsgRecordDeleted:  "Organization removed from Project",
		MsgListEmpty:      "No Organizations for this Project",
	},
	ResourceActivityType: {
		TitleCreate:       "Add Activity Type",
		TitleDisplay:      "Activity Type",
		TitleList:         "List of Activity Types",
		TitleUpdate:       "Edit Activity Type",
		TitleSearch:       "Search for Activity Type",
		SubtitleCreate:    "Add New Activity Type",
		SubtitleList:      "All Activity Types",
		LabelListButton:   "List of Activity Types",
		LabelCreateButton: "Add Activity Type",
		MsgRecordCreated:  "Activity Type Added",
		MsgRecordModified: "Activity Type Updated",
		MsgRecordDeleted:  "Activity Type Deleted",
		MsgListEmpty:      "No Activity Types Found",
	},
	ResourceActivity: {
		TitleCreate:       "Add Activity",
		TitleDisplay:      "Activity Details",
		TitleList:         "List Activities",
		TitleUpdate:       "Edit Activity",
		TitleSearch:       "Search Activities",
		TitleUpload:       "Import Activity Data",
		TitleReport:       "Budget Line Utilisation",
		SubtitleCreate:    "Add New Activity",
		SubtitleList:      "Activities",
		LabelListButton:   "List Activities",
		LabelCreateButton: "Add Activity",
		MsgRecordCreated:  "Activity Added",
		MsgRecordModified: "Activity Updated",
		MsgRecordDeleted:  "Activity Deleted",
		MsgListEmpty:      "No Activities Found",
	},
	ResourceBeneficiaryType: {
		TitleCreate:       "Add Beneficiary Type",
		TitleDisplay:      "Beneficiary Type",
		TitleList:         "List Beneficiary Types",
		TitleUpdate:       "Edit Beneficiary Type",
		TitleSearch:       "Search Beneficiary Types",
		SubtitleCreate:    "Add New Beneficiary Type",
		SubtitleList:      "Beneficiary Types",
		LabelListButton:   "List Beneficiary Types",
		LabelCreateButton: "Add Beneficiary Type",
		MsgRecordCreated:  "Beneficiary Type Added",
		MsgRecordModified: "Beneficiary Type Updated",
		MsgRecordDeleted:  "Beneficiary Type Deleted",
		MsgListEmpty:      "No Beneficiary Types Found",
	},
	ResourceBeneficiary: {
		TitleCreate:       "Add Beneficiaries",
		TitleDisplay:      "Beneficiaries Details",
		TitleList:         "List Beneficiaries",
		TitleUpdate:       "Edit Beneficiaries",
		TitleSearch:       "Search Beneficiaries",
		TitleReport:       "Beneficiary Report",
		SubtitleCreate:    "Add New Beneficiaries",
		SubtitleList:      "Beneficiaries",
		LabelListButton:   "List Beneficiaries",
		LabelCreateButton: "Add Beneficiaries",
		MsgRecordCreated:  "Beneficiaries Added",
		MsgRecordModified: "Beneficiaries Updated",
		MsgRecordDeleted:  "Beneficiaries Deleted",
		MsgListEmpty:      "No Beneficiaries Found",
	},
	ResourceMilestone: {
		TitleCreate:       "Add Milestone",
		TitleDisplay:      "Milestone Details",
		TitleList:         "List Milestones",
		TitleUpdate:       "Edit Milestone",
		TitleSearch:       "Search Milestones",
		TitleUpload:       "Import Milestone Data",
		SubtitleCreate:    "Add New Milestone",
		SubtitleList:      "Milestones",
		LabelListButton:   "List Milestones",
		LabelCreateButton: "Add Milestone",
		MsgRecordCreated:  "Milestone Added",
		MsgRecordModified: "Milestone Updated",
		MsgRecordDeleted:  "Milestone Deleted",
		MsgListEmpty:      "No Milestones Found",
	},
	ResourceTask: {
		TitleCreate:       "Add Task",
		TitleDisplay:      "Task Details",
		TitleList:         "List Tasks",
		TitleUpdate:       "Edit Task",
		TitleSearch:       "Search Tasks",
		TitleUpload:       "Import Tasks",
		SubtitleCreate:    "Add New Task",
		SubtitleList:      "Tasks",
		LabelListButton:   "List Tasks",
		LabelCreateButton: "Add Task",
		MsgRecordCreated:  "Task added",
		MsgRecordModified: "Task updated",
		MsgRecordDeleted:  "Task deleted",
		MsgListEmpty:      "No tasks currently registered",
	},
	ResourceTime: {
		TitleCreate:       "Log Time Spent",
		TitleDisplay:      "Logged Time Details",
		TitleList:         "List Logged Time",
		TitleUpdate:       "Edit Logged Time",
		TitleSearch:       "Search Logged Time",
		TitleUpload:       "Import Logged Time data",
		TitleReport:       "Last Week's Work",
		SubtitleCreate:    "Log New Time",
		SubtitleList:      "Logged Time",
		LabelListButton:   "List Logged Time",
		LabelCreateButton: "Log Time Spent",
		MsgRecordCreated:  "Time Logged",
		MsgRecordModified: "Time Log Updated",
		MsgRecordDeleted:  "Time Log Deleted",
		MsgListEmpty:      "No Time Logged",
	},
	ResourceComment: {
		TitleCreate:       "Add Comment",
		TitleDisplay:      "Comment Details",
		TitleList:         "Comments",
		TitleUpdate:       "Edit Comment",
		TitleSearch:       "Search Comments",
		SubtitleCreate:    "Add New Comment",
		SubtitleList:      "Comments",
		LabelListButton:   "List Comments",
		LabelCreateButton: "Add Comment",
		MsgRecordCreated:  "Comment added",
		MsgRecordModified: "Comment updated",
		MsgRecordDeleted:  "Comment deleted",
		MsgListEmpty:      "No Comments",
	},
}

// communityActivityStrings replace the activity strings when activities
// are communities.
var communityActivityStrings = CRUDStrings{
	TitleCreate:       "Add Community",
	TitleDisplay:      "Community Details",
	TitleList:         "List Communities",
	TitleUpdate:       "Edit Community Details",
	TitleSearch:       "Search Community",
	TitleUpload:       "Import Community Data",
	TitleReport:       "Who is doing What Where",
	SubtitleCreate:    "Add New Community",
	SubtitleList:      "Communities",
	LabelListButton:   "List Communities",
	LabelCreateButton: "Add Community",
	MsgRecordCreated:  "Community Added",
	MsgRecordModified: "Community Updated",
	MsgRecordDeleted:  "Community Deleted",
	MsgListEmpty:      "No Communities Found",
}

// Strings returns the CRUD strings of resource.
func Strings(resource string, communityActivity bool) (CRUDStrings, bool) {
	if resource == ResourceActivity && communityActivity {
		return communityActivityStrings, true
	}
	s, ok := crudStrings[resource]
	return s, ok
}
