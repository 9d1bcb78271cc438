package resources

import (
	"encoding/json"
	"time"

	"garansi-console/pkg/utils"
)

type Product struct {
	ID             utils.FlexID `json:"id"`
	Name           string       `json:"name"`
	SKU            string       `json:"sku,omitempty"`
	Category       string       `json:"category,omitempty"`
	Brand          string       `json:"brand,omitempty"`
	Price          float64      `json:"price"`
	WarrantyMonths int          `json:"warrantyMonths"`
	Status         Status       `json:"status"`
	CreatedAt      *time.Time   `json:"createdAt,omitempty"`
}

type ProductInput struct {
	Name           string  `json:"name" validate:"required,max=200"`
	SKU            string  `json:"sku,omitempty" validate:"omitempty,max=64"`
	Category       string  `json:"category,omitempty"`
	Brand          string  `json:"brand,omitempty"`
	Price          float64 `json:"price" validate:"gte=0"`
	WarrantyMonths int     `json:"warrantyMonths" validate:"gte=0,lte=120"`
	Status         string  `json:"status,omitempty" validate:"omitempty,oneof=ACTIVE INACTIVE"`
}

func mapProduct(raw json.RawMessage) (Product, error) {
	r, err := decodeRecord(raw)
	if err != nil {
		return Product{}, err
	}
	return Product{
		ID:             r.id(idKeys...),
		Name:           r.str("name", "productName", "product_name", "title"),
		SKU:            r.str("sku", "code", "productCode", "product_code"),
		Category:       firstName(r, "category", "categoryName", "category_name"),
		Brand:          firstName(r, "brand", "brandName", "brand_name"),
		Price:          r.num("price", "basePrice", "base_price"),
		WarrantyMonths: r.integer("warrantyMonths", "warranty_months", "warrantyPeriod", "warranty_period"),
		Status:         r.status(statusKeys...),
		CreatedAt:      r.timestamp(createdKey...),
	}, nil
}

type Store struct {
	ID           utils.FlexID `json:"id"`
	Name         string       `json:"name"`
	Address      string       `json:"address,omitempty"`
	City         string       `json:"city,omitempty"`
	Phone        string       `json:"phone,omitempty"`
	SupervisorID utils.FlexID `json:"supervisorId,omitempty"`
	Supervisor   string       `json:"supervisor,omitempty"`
	Status       Status       `json:"status"`
}

type StoreInput struct {
	Name         string `json:"name" validate:"required,max=200"`
	Address      string `json:"address,omitempty"`
	City         string `json:"city,omitempty"`
	Phone        string `json:"phone,omitempty" validate:"omitempty,phone"`
	SupervisorID string `json:"supervisorId,omitempty"`
	Status       string `json:"status,omitempty" validate:"omitempty,oneof=ACTIVE INACTIVE"`
}

func mapStore(raw json.RawMessage) (Store, error) {
	r, err := decodeRecord(raw)
	if err != nil {
		return Store{}, err
	}
	sup := r.nested("supervisor")
	supID := r.id("supervisorId", "supervisor_id")
	if supID == "" {
		supID = sup.id(idKeys...)
	}
	return Store{
		ID:           r.id(idKeys...),
		Name:         r.str("name", "storeName", "store_name"),
		Address:      r.str("address", "alamat"),
		City:         r.str("city", "kota"),
		Phone:        r.str(phoneKeys...),
		SupervisorID: supID,
		Supervisor:   utils.FirstNonEmpty(r.str("supervisorName", "supervisor_name"), sup.str(nameKeys...)),
		Status:       r.status(statusKeys...),
	}, nil
}

type Supervisor struct {
	ID         utils.FlexID `json:"id"`
	Name       string       `json:"name"`
	Phone      string       `json:"phone"`
	Email      string       `json:"email,omitempty"`
	StoreCount int          `json:"storeCount"`
	Status     Status       `json:"status"`
}

type SupervisorInput struct {
	Name     string `json:"name" validate:"required,max=120"`
	Phone    string `json:"phone" validate:"required,phone"`
	Email    string `json:"email,omitempty" validate:"omitempty,email"`
	Password string `json:"password,omitempty" validate:"omitempty,min=6"`
	Status   string `json:"status,omitempty" validate:"omitempty,oneof=ACTIVE INACTIVE"`
}

func mapSupervisor(raw json.RawMessage) (Supervisor, error) {
	r, err := decodeRecord(raw)
	if err != nil {
		return Supervisor{}, err
	}
	count := r.integer("storeCount", "store_count", "totalStores", "total_stores")
	if count == 0 {
		if v, ok := r.raw("stores"); ok && v[0] == '[' {
			var stores []json.RawMessage
			if json.Unmarshal(v, &stores) == nil {
				count = len(stores)
			}
		}
	}
	return Supervisor{
		ID:         r.id(idKeys...),
		Name:       r.str(nameKeys...),
		Phone:      r.str(phoneKeys...),
		Email:      r.str("email"),
		StoreCount: count,
		Status:     r.status(statusKeys...),
	}, nil
}

// SalesPerson is a member of a store's sales staff.
type SalesPerson struct {
	ID        utils.FlexID `json:"id"`
	Name      string       `json:"name"`
	Phone     string       `json:"phone"`
	StoreID   utils.FlexID `json:"storeId,omitempty"`
	StoreName string       `json:"storeName,omitempty"`
	Status    Status       `json:"status"`
}

type SalesInput struct {
	Name     string `json:"name" validate:"required,max=120"`
	Phone    string `json:"phone" validate:"required,phone"`
	StoreID  string `json:"storeId" validate:"required"`
	Password string `json:"password,omitempty" validate:"omitempty,min=6"`
	Status   string `json:"status,omitempty" validate:"omitempty,oneof=ACTIVE INACTIVE"`
}

func mapSalesPerson(raw json.RawMessage) (SalesPerson, error) {
	r, err := decodeRecord(raw)
	if err != nil {
		return SalesPerson{}, err
	}
	store := r.nested("store")
	storeID := r.id("storeId", "store_id")
	if storeID == "" {
		storeID = store.id(idKeys...)
	}
	return SalesPerson{
		ID:        r.id(idKeys...),
		Name:      r.str(nameKeys...),
		Phone:     r.str(phoneKeys...),
		StoreID:   storeID,
		StoreName: utils.FirstNonEmpty(r.str("storeName", "store_name"), store.str("name", "storeName")),
		Status:    r.status(statusKeys...),
	}, nil
}

// Customer is a warranty holder together with the registered product.
type Customer struct {
	ID                utils.FlexID `json:"id"`
	Name              string       `json:"name"`
	Phone             string       `json:"phone"`
	Email             string       `json:"email,omitempty"`
	Address           string       `json:"address,omitempty"`
	ProductID         utils.FlexID `json:"productId,omitempty"`
	ProductName       string       `json:"productName,omitempty"`
	SerialNumber      string       `json:"serialNumber,omitempty"`
	PurchaseDate      *time.Time   `json:"purchaseDate,omitempty"`
	WarrantyExpiresAt *time.Time   `json:"warrantyExpiresAt,omitempty"`
	Status            Status       `json:"status"`
}

type CustomerInput struct {
	Name         string `json:"name" validate:"required,max=120"`
	Phone        string `json:"phone" validate:"required,phone"`
	Email        string `json:"email,omitempty" validate:"omitempty,email"`
	Address      string `json:"address,omitempty"`
	ProductID    string `json:"productId" validate:"required"`
	SerialNumber string `json:"serialNumber,omitempty" validate:"omitempty,max=64"`
	PurchaseDate string `json:"purchaseDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

func mapCustomer(raw json.RawMessage) (Customer, error) {
	r, err := decodeRecord(raw)
	if err != nil {
		return Customer{}, err
	}
	product := r.nested("product")
	warranty := r.nested("warranty")
	productID := r.id("productId", "product_id")
	if productID == "" {
		productID = product.id(idKeys...)
	}
	status := r.status(statusKeys...)
	if status == StatusUnknown {
		status = warranty.status(statusKeys...)
	}
	expires := r.timestamp("warrantyExpiresAt", "warranty_expires_at", "warrantyEndDate", "warranty_end_date")
	if expires == nil {
		expires = warranty.timestamp("expiresAt", "expires_at", "endDate", "end_date")
	}
	return Customer{
		ID:                r.id(idKeys...),
		Name:              r.str("name", "customerName", "customer_name", "fullName", "full_name"),
		Phone:             r.str(append([]string{"customerPhone", "customer_phone"}, phoneKeys...)...),
		Email:             r.str("email"),
		Address:           r.str("address", "alamat"),
		ProductID:         productID,
		ProductName:       utils.FirstNonEmpty(r.str("productName", "product_name"), product.str("name", "productName")),
		SerialNumber:      r.str("serialNumber", "serial_number", "imei"),
		PurchaseDate:      r.timestamp("purchaseDate", "purchase_date"),
		WarrantyExpiresAt: expires,
		Status:            status,
	}, nil
}

// firstName reads a field that is either a plain string or an object with
// a name.
func firstName(r record, keys ...string) string {
	if s := r.str(keys...); s != "" {
		return s
	}
	return r.nested(keys...).str("name")
}
