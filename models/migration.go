package models

import (
	"log"

	"github.com/mmdatafocus/gst_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&Business{},
		&SalesInvoice{}, &SalesInvoiceDetail{},
		&PurchaseInvoice{}, &PurchaseInvoiceDetail{},
		&InwardSupply{}, &InwardSupplyItem{},
		&GSTReturnLog{}, &ReturnBlob{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
